package pyramid

import (
	"log"
	"os"
	"sync"
)

// AccessMode selects the protection flags for a memory-mapped window.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
	WriteOnly
)

// Level owns one backing file and tracks its geometry, the streaming write
// cursor (Outline), and the streaming tile-builder cursor (Row).
type Level struct {
	Index    int
	Geometry Geometry

	file *os.File
	ref  *fdRef

	// Outline is the next row index to receive scanline writes (streaming only).
	Outline int
	// Row is the next tile row to be emitted by the tile builder.
	Row int

	wholeMu   sync.Mutex
	whole     []byte
	wholeMode AccessMode
	wholeSet  bool

	finalized bool // true once TruncateScratch has run
}

// FileSize returns the level's current on-disk size.
func (l *Level) FileSize() (int64, error) {
	info, err := l.file.Stat()
	if err != nil {
		return 0, ioErrorf("level.FileSize", err)
	}
	return info.Size(), nil
}

// Fd exposes the raw file descriptor, used by the Flush Coordinator to issue
// fsync without taking the Mapper's locks.
func (l *Level) Fd() *os.File { return l.file }

// Mapper owns one backing file per pyramid level and hands out scoped
// windowed maps.
type Mapper struct {
	mu      sync.Mutex
	levels  map[int]*Level
	dir     string // directory for unlinked temp files
	verbose bool
}

// NewMapper creates a Mapper whose backing files live (briefly, before being
// unlinked) under dir. An empty dir uses os.TempDir().
func NewMapper(dir string) *Mapper {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Mapper{levels: make(map[int]*Level), dir: dir}
}

// CreateLevel computes a level's geometry, creates an unlinked temp file,
// disables read-ahead, requests a contiguous preallocation and truncates to
// the final mapped size.
func (m *Mapper) CreateLevel(k, width, height int) (*Level, error) {
	geom := computeGeometry(width, height)

	f, err := os.CreateTemp(m.dir, "pyramid-level-*.tmp")
	if err != nil {
		return nil, ioErrorf("CreateLevel", err)
	}
	// Unlink immediately: abnormal termination cannot leak the file, and the
	// kernel reclaims the backing storage once every fd referencing it closes.
	name := f.Name()
	if err := os.Remove(name); err != nil {
		f.Close()
		return nil, ioErrorf("CreateLevel.unlink", err)
	}

	if err := disableReadahead(f); err != nil {
		// Best-effort: some filesystems (tmpfs, overlay) reject fadvise.
		_ = err
	}

	if err := preallocate(f, geom.MappedSize); err != nil {
		f.Close()
		return nil, ioErrorf("CreateLevel.preallocate", err)
	}
	if err := f.Truncate(geom.MappedSize); err != nil {
		f.Close()
		return nil, ioErrorf("CreateLevel.truncate", err)
	}

	lvl := &Level{Index: k, Geometry: geom, file: f, ref: newFdRef(f)}
	m.mu.Lock()
	m.levels[k] = lvl
	m.mu.Unlock()
	if m.verbose {
		log.Printf("pyramid: level %d created: %dx%d (%d bytes mapped)", k, width, height, geom.MappedSize)
	}
	return lvl, nil
}

// Level returns a previously created level, or nil if none exists for k.
func (m *Mapper) Level(k int) *Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[k]
}

// MapWhole maps the entire level file into memory with the requested
// access. Used by the non-streaming decode path. The mapping lives until
// UnmapWhole or level destruction.
func (m *Mapper) MapWhole(lvl *Level, mode AccessMode) ([]byte, error) {
	lvl.wholeMu.Lock()
	defer lvl.wholeMu.Unlock()
	if lvl.wholeSet {
		return lvl.whole, nil
	}
	data, err := mmapRegion(lvl.file.Fd(), 0, int(lvl.Geometry.MappedSize), mode)
	if err != nil {
		return nil, ioErrorf("MapWhole", err)
	}
	lvl.whole = data
	lvl.wholeMode = mode
	lvl.wholeSet = true
	return data, nil
}

// UnmapWhole releases the level's whole-file mapping, if any.
func (m *Mapper) UnmapWhole(lvl *Level) error {
	lvl.wholeMu.Lock()
	defer lvl.wholeMu.Unlock()
	if !lvl.wholeSet {
		return nil
	}
	err := munmapRegion(lvl.whole)
	lvl.whole = nil
	lvl.wholeSet = false
	if err != nil {
		return ioErrorf("UnmapWhole", err)
	}
	return nil
}

// Window is a scoped memory-map handle. Every exit path — including error
// paths — must call Release exactly once.
type Window struct {
	raw    []byte // page-aligned mmap'd region
	Data   []byte // caller's requested sub-slice within raw, at the logical offset
	mapper *Mapper
}

// Release unmaps the window's backing pages. Calls after the first are
// no-ops that return nil.
func (w *Window) Release() error {
	if w == nil || w.raw == nil {
		return nil
	}
	err := munmapRegion(w.raw)
	w.raw = nil
	w.Data = nil
	if err != nil {
		return ioErrorf("Window.Release", err)
	}
	return nil
}

var pageSize = os.Getpagesize()

// MapWindow rounds byteOffset down to the OS page boundary, adjusts byteLen
// upward by the same amount, and returns a Window whose Data field points at
// the caller's logical offset within the returned mapping.
func (m *Mapper) MapWindow(lvl *Level, byteOffset int64, byteLen int, mode AccessMode) (*Window, error) {
	aligned := byteOffset % int64(pageSize)
	mapOffset := byteOffset - aligned
	mapLen := byteLen + int(aligned)

	raw, err := mmapRegion(lvl.file.Fd(), mapOffset, mapLen, mode)
	if err != nil {
		return nil, ioErrorf("MapWindow", err)
	}
	return &Window{
		raw:    raw,
		Data:   raw[aligned : aligned+int64(byteLen)],
		mapper: m,
	}, nil
}

// TruncateScratch shrinks the level's file by exactly ScratchBytes from the
// end, leaving the file sized to its tiled payload. Must run after the
// level's whole-file mapping, if any, has been released — no mapping may
// outlive the file resize that shrinks it.
func (m *Mapper) TruncateScratch(lvl *Level) error {
	size, err := lvl.FileSize()
	if err != nil {
		return err
	}
	newSize := size - int64(lvl.Geometry.ScratchBytes)
	if newSize < 0 {
		newSize = 0
	}
	if err := lvl.file.Truncate(newSize); err != nil {
		return ioErrorf("TruncateScratch", err)
	}
	lvl.finalized = true
	return nil
}

// CloseLevel releases a level's whole-file mapping (if any) and drops the
// pyramid's own reference to its file descriptor. The file was created
// unlinked, so the kernel reclaims the backing storage once the last
// reference — including outstanding tile read-back handles acquired via
// fdRef.acquire — drops.
func (m *Mapper) CloseLevel(lvl *Level) error {
	_ = m.UnmapWhole(lvl)
	m.mu.Lock()
	delete(m.levels, lvl.Index)
	m.mu.Unlock()
	if err := lvl.ref.release(); err != nil {
		return ioErrorf("CloseLevel", err)
	}
	return nil
}

// Close tears down every level the Mapper still owns.
func (m *Mapper) Close() error {
	m.mu.Lock()
	levels := make([]*Level, 0, len(m.levels))
	for _, lvl := range m.levels {
		levels = append(levels, lvl)
	}
	m.mu.Unlock()

	var firstErr error
	for _, lvl := range levels {
		if err := m.CloseLevel(lvl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
