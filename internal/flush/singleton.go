package flush

import "sync"

// The flush counter and its concurrency group are process-wide by nature —
// a single count of outstanding dirty bytes across the whole build — so they
// are wired as an injected singleton with an explicit Init/Shutdown pair
// rather than an ambient package global. Tests still get New() for a
// private instance.
var (
	globalMu sync.Mutex
	global   *Coordinator
)

// Init installs the process-wide Coordinator, replacing any previous one.
// Callers that don't need process-wide sharing should prefer New.
func Init(cfg Config) *Coordinator {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = New(cfg)
	return global
}

// Default returns the process-wide Coordinator, initializing one with
// default configuration on first use.
func Default() *Coordinator {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New(Config{})
	}
	return global
}

// Shutdown waits out the process-wide Coordinator's background fsyncs and
// clears it, so a subsequent Default/Init starts fresh.
func Shutdown() error {
	globalMu.Lock()
	c := global
	global = nil
	globalMu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
