package pyramid

import (
	"github.com/arourke/rasterpyramid/internal/flush"
	"github.com/arourke/rasterpyramid/internal/memprobe"
)

// config collects the build-time knobs a pyramid can be constructed with.
type config struct {
	strategy          Strategy
	flushDiskCache    bool
	memoryConstrained bool
	tempDir           string
	flusher           *flush.Coordinator
	verbose           bool
}

// Option configures a pyramid constructor.
type Option func(*config)

// WithDownsampler selects the downsampling strategy used for every level
// beyond the first. The default is Decimate.
func WithDownsampler(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithFlushDiskCache forces a background fsync to be scheduled for every
// finalized level, regardless of memory pressure.
func WithFlushDiskCache(enabled bool) Option {
	return func(c *config) { c.flushDiskCache = enabled }
}

// WithMemoryConstrained overrides the automatic memprobe-based detection of
// low-memory devices. When true the pyramid behaves as though
// WithFlushDiskCache(true) was also given.
func WithMemoryConstrained(constrained bool) Option {
	return func(c *config) { c.memoryConstrained = constrained }
}

// WithTempDir overrides the directory used for level backing files. Empty
// (the default) uses os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *config) { c.tempDir = dir }
}

// WithFlushCoordinator wires a caller-owned Coordinator instead of the
// process-wide default, letting tests and multi-pyramid hosts avoid shared
// global state.
func WithFlushCoordinator(f *flush.Coordinator) Option {
	return func(c *config) { c.flusher = f }
}

// WithVerbose enables package-level progress logging for level creation,
// level finalization, the streaming header and the RAM probe, the same
// switch cmd/pyramidbuild exposes as -verbose.
func WithVerbose(v bool) Option {
	return func(c *config) { c.verbose = v }
}

func newConfig(opts []Option) *config {
	// A first pass over opts just to learn verbose before probing RAM, so
	// the probe's own log line (if any) respects the caller's setting.
	probe := &config{}
	for _, opt := range opts {
		opt(probe)
	}
	memoryConstrained, _ := memprobe.IsConstrainedVerbose(probe.verbose)

	c := &config{
		strategy:          Decimate,
		memoryConstrained: memoryConstrained,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.flusher == nil {
		c.flusher = flush.Default()
	}
	return c
}

// flushEverything reports whether every finalized level should be
// unconditionally scheduled for a background fsync.
func (c *config) flushEverything() bool {
	return c.flushDiskCache || c.memoryConstrained
}
