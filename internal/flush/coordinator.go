// Package flush implements the back-pressure / flush policy that keeps the
// OS buffer cache from blowing out memory on low-RAM devices: a byte counter
// tracked with atomics, a dedicated sync.Cond gate for backpressure, and a
// bounded background worker pool that runs fsync against already-written
// level files.
package flush

import (
	"log"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultThresholdBytes is the dirty-byte ceiling above which new level
// allocations block: roughly the point at which a typical low-memory device
// starts evicting foreground pages.
const DefaultThresholdBytes = 50 * 1024 * 1024

// Config configures a Coordinator.
type Config struct {
	// ThresholdBytes overrides DefaultThresholdBytes when > 0.
	ThresholdBytes int64
	// MaxConcurrentFsyncs bounds the background worker pool. 0 means 1, since
	// one concurrent queue is sufficient for local disk.
	MaxConcurrentFsyncs int
	// Verbose enables logging of scheduled and completed background fsyncs.
	Verbose bool
}

// Coordinator tracks outstanding dirtied bytes across a pyramid build,
// schedules background full-file syncs, and gates new allocations when the
// threshold is exceeded.
type Coordinator struct {
	threshold int64

	dirtyBytes atomic.Int64

	gateMu    sync.Mutex
	gateCond  *sync.Cond
	throttled bool

	group   *errgroup.Group
	verbose bool
}

// New creates a private Coordinator. Tests and callers that don't want
// process-wide shared state should use this directly instead of
// Init/Default.
func New(cfg Config) *Coordinator {
	threshold := cfg.ThresholdBytes
	if threshold <= 0 {
		threshold = DefaultThresholdBytes
	}
	limit := cfg.MaxConcurrentFsyncs
	if limit <= 0 {
		limit = 1
	}
	c := &Coordinator{threshold: threshold, group: &errgroup.Group{}, verbose: cfg.Verbose}
	c.gateCond = sync.NewCond(&c.gateMu)
	c.group.SetLimit(limit)
	return c
}

// DirtyBytes returns the current outstanding dirtied byte count.
func (c *Coordinator) DirtyBytes() int64 {
	return c.dirtyBytes.Load()
}

// LevelFinalized records size newly-dirtied bytes for f (typically called
// at the end of a level's tile builder in final mode) and schedules a
// background fsync that releases the same amount on completion.
func (c *Coordinator) LevelFinalized(f *os.File, size int64) {
	if size <= 0 {
		return
	}
	total := c.dirtyBytes.Add(size)
	c.maybeThrottle(total)
	if c.verbose {
		log.Printf("flush: scheduled fsync of %d bytes (%d dirty)", size, total)
	}

	c.group.Go(func() error {
		err := f.Sync()
		remaining := c.dirtyBytes.Add(-size)
		c.maybeUnthrottle(remaining)
		if err != nil {
			if c.verbose {
				log.Printf("flush: background fsync failed: %v", err)
			}
			// The level has already been finalized and handed to its
			// caller; a background fsync failure can't retroactively fail
			// it, but it does fail the next Close/Wait so the build as a
			// whole surfaces the problem instead of losing it silently.
			return err
		}
		if c.verbose {
			log.Printf("flush: fsync completed (%d dirty remaining)", remaining)
		}
		return nil
	})
}

// maybeThrottle transitions throttled false->true once dirtyBytes crosses
// the threshold upward.
func (c *Coordinator) maybeThrottle(total int64) {
	if total <= c.threshold {
		return
	}
	c.gateMu.Lock()
	c.throttled = true
	c.gateMu.Unlock()
}

// maybeUnthrottle transitions throttled true->false on the downward
// crossing and wakes anyone waiting in WaitForCapacity.
func (c *Coordinator) maybeUnthrottle(remaining int64) {
	if remaining > c.threshold {
		return
	}
	c.gateMu.Lock()
	if c.throttled {
		c.throttled = false
		c.gateCond.Broadcast()
	}
	c.gateMu.Unlock()
}

// WaitForCapacity blocks while the coordinator is throttled. New level
// allocations call this before starting; nothing else in the pipeline
// blocks on it.
func (c *Coordinator) WaitForCapacity() {
	c.gateMu.Lock()
	for c.throttled {
		c.gateCond.Wait()
	}
	c.gateMu.Unlock()
}

// Close waits for every outstanding background fsync to complete. Safe to
// call once per Coordinator; outstanding fsyncs are allowed to complete
// after external cancellation, which Close models by simply waiting them
// out rather than aborting them.
func (c *Coordinator) Close() error {
	return c.group.Wait()
}
