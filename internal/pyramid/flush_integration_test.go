package pyramid

import (
	"testing"
	"time"

	"github.com/arourke/rasterpyramid/internal/flush"
)

// TestNewFromImage_MemoryConstrainedDrainsFlushCoordinator builds a real
// pyramid with WithMemoryConstrained(true) against a private Coordinator
// whose threshold is small enough that at least one level's finalize must
// throttle, then checks the coordinator actually drains back to zero dirty
// bytes once the build's background fsyncs complete — the wiring spec.md
// §8's memory-constrained scenario depends on, exercised end to end rather
// than against flush.Coordinator in isolation.
func TestNewFromImage_MemoryConstrainedDrainsFlushCoordinator(t *testing.T) {
	width, height := 1024, 1024
	pix := gradientPixels(width, height)

	coord := flush.New(flush.Config{ThresholdBytes: 64 * 1024, MaxConcurrentFsyncs: 1})

	p, err := NewFromImage(pix, width, height, 3,
		WithTempDir(t.TempDir()),
		WithFlushCoordinator(coord),
		WithMemoryConstrained(true),
	)
	if err != nil {
		t.Fatalf("NewFromImage: %v", err)
	}
	defer p.Close()

	if !p.cfg.flushEverything() {
		t.Fatal("WithMemoryConstrained(true) should make flushEverything report true")
	}

	if err := coord.Close(); err != nil {
		t.Fatalf("Coordinator.Close: %v", err)
	}
	if got := coord.DirtyBytes(); got != 0 {
		t.Fatalf("DirtyBytes after every background fsync drained = %d, want 0", got)
	}

	tile, err := p.TileAt(1.0, 0, 0)
	if err != nil {
		t.Fatalf("TileAt after a memory-constrained build: %v", err)
	}
	tile.Release()
}

// TestNewFromImage_FlushDiskCacheSchedulesEveryLevel checks that
// WithFlushDiskCache(true) on its own (independent of the RAM probe) routes
// every finalized level through the coordinator, by using a threshold of 1
// byte so WaitForCapacity must block until the previous level's fsync lands.
func TestNewFromImage_FlushDiskCacheSchedulesEveryLevel(t *testing.T) {
	width, height := 512, 512
	pix := gradientPixels(width, height)

	coord := flush.New(flush.Config{ThresholdBytes: 1, MaxConcurrentFsyncs: 1})

	done := make(chan error, 1)
	go func() {
		p, err := NewFromImage(pix, width, height, 3,
			WithTempDir(t.TempDir()),
			WithFlushCoordinator(coord),
			WithFlushDiskCache(true),
		)
		if p != nil {
			defer p.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("NewFromImage: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("build with a near-zero flush threshold never completed")
	}

	if err := coord.Close(); err != nil {
		t.Fatalf("Coordinator.Close: %v", err)
	}
	if got := coord.DirtyBytes(); got != 0 {
		t.Fatalf("DirtyBytes after drain = %d, want 0", got)
	}
}
