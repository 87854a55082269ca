package pyramid

import (
	"os"
	"sync/atomic"
)

// fdRef is a reference-counted handle around a level's backing file. The
// pyramid holds the base reference for the file's whole lifetime; every
// tile handed to a caller via the provider acquires its own reference before
// mapping and releases it when the caller is done, so an outstanding tile
// keeps the descriptor open even after the pyramid itself is closed.
type fdRef struct {
	file *os.File
	refs atomic.Int32
}

// newFdRef wraps f with an initial reference count of one, owned by the caller.
func newFdRef(f *os.File) *fdRef {
	r := &fdRef{file: f}
	r.refs.Store(1)
	return r
}

// acquire takes an additional reference, returning the same handle.
func (r *fdRef) acquire() *fdRef {
	r.refs.Add(1)
	return r
}

// release drops a reference, closing the underlying file once the count
// reaches zero. Safe to call from multiple references concurrently.
func (r *fdRef) release() error {
	if r.refs.Add(-1) == 0 {
		return r.file.Close()
	}
	return nil
}
