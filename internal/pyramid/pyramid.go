package pyramid

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arourke/rasterpyramid/internal/codec"
)

// Pyramid is a multi-resolution, pre-tiled raster image on local disk: one
// memory-mapped backing file per zoom level. It is constructed by exactly
// one of NewFromImage, NewFromPath or NewForNetwork, and is single-producer:
// build operations never overlap for one instance.
type Pyramid struct {
	mu sync.Mutex

	mapper   *Mapper
	provider *Provider
	cfg      *config

	levelCount    int // requested number of levels (L)
	levelsCreated int // levels actually created (degenerate levels are skipped)

	width, height int

	failed  bool
	failErr error

	// streaming-only state; nil for NewFromImage/NewFromPath pyramids.
	stream *streamPyramid

	// netAccum buffers AppendBytes input for network decoder kinds other
	// than StreamingScanline, which decode everything at DataFinished.
	netAccum *os.File
	netKind  codec.DecoderKind
	netDone  bool
}

// ImageSize returns the level-0 pixel dimensions. Valid once the header (for
// streaming/network builds) or the whole image (for NewFromImage/NewFromPath)
// is known, even if the build later fails.
func (p *Pyramid) ImageSize() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Close releases every level's backing file. Outstanding TileImages acquired
// via TileAt keep their own level's descriptor open via fdRef until released.
func (p *Pyramid) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.netAccum != nil {
		name := p.netAccum.Name()
		_ = p.netAccum.Close()
		_ = os.Remove(name)
		p.netAccum = nil
	}
	return p.mapper.Close()
}

// TileAt returns one tile's pixels, mapped read-only. scaleFraction selects
// the level: 1.0 is level 0 (full resolution), 0.5 is level 1, and so on.
func (p *Pyramid) TileAt(scaleFraction float64, row, col int) (*TileImage, error) {
	p.mu.Lock()
	failed, ferr := p.failed, p.failErr
	maxLevel := p.levelsCreated - 1
	p.mu.Unlock()
	if failed {
		return nil, ferr
	}
	if maxLevel < 0 {
		return nil, outOfRangeErrorf("TileAt", fmt.Errorf("pyramid has no finalized levels yet"))
	}
	return p.provider.TileAt(scaleFraction, row, col, maxLevel)
}

// setFailed sticks err as the pyramid's permanent failure. Safe to call more
// than once; only the first error sticks. Must be called with p.mu held.
func (p *Pyramid) setFailed(err error) error {
	if !p.failed {
		p.failed = true
		p.failErr = err
	}
	return p.failErr
}

func newPyramid(levels int, opts []Option) (*Pyramid, error) {
	if levels < 1 {
		return nil, fmt.Errorf("pyramid: levels must be >= 1, got %d", levels)
	}
	cfg := newConfig(opts)
	m := NewMapper(cfg.tempDir)
	m.verbose = cfg.verbose
	return &Pyramid{
		mapper:     m,
		provider:   NewProvider(m),
		cfg:        cfg,
		levelCount: levels,
	}, nil
}

// NewFromImage builds a pyramid directly from an already-decoded, tightly
// packed ABGR8 pixel buffer (width*4 bytes per row, no padding).
func NewFromImage(pixels []byte, width, height, levels int, opts ...Option) (*Pyramid, error) {
	p, err := newPyramid(levels, opts)
	if err != nil {
		return nil, err
	}
	write := func(whole []byte, paddedRowBytes int) error {
		rowBytes := width * BytesPerPixel
		if len(pixels) < rowBytes*height {
			return fmt.Errorf("pyramid: pixel buffer too small for %dx%d image", width, height)
		}
		for y := 0; y < height; y++ {
			src := pixels[y*rowBytes : y*rowBytes+rowBytes]
			dst := whole[y*paddedRowBytes : y*paddedRowBytes+rowBytes]
			copy(dst, src)
		}
		return nil
	}
	created, err := p.buildWholeImage(width, height, write)
	p.mu.Lock()
	p.width, p.height = width, height
	p.levelsCreated = created
	if err != nil {
		p.setFailed(err)
	}
	p.mu.Unlock()
	if err != nil {
		return p, err
	}
	return p, nil
}

// NewFromPath decodes a whole file with the adapter selected by kind
// (CgStyleOneShot or OneShotTurbo) and builds a pyramid from the result.
func NewFromPath(path string, kind codec.DecoderKind, levels int, opts ...Option) (*Pyramid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioErrorf("NewFromPath", err)
	}
	p, err := newPyramid(levels, opts)
	if err != nil {
		return nil, err
	}
	img, err := codec.DecodeToImage(kind, data)
	if err != nil {
		p.mu.Lock()
		p.setFailed(decoderErrorf("NewFromPath", err))
		p.mu.Unlock()
		return p, p.failErr
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	write := func(whole []byte, paddedRowBytes int) error {
		codec.WriteABGR8(img, whole, paddedRowBytes)
		return nil
	}
	created, err := p.buildWholeImage(width, height, write)
	p.mu.Lock()
	p.width, p.height = width, height
	p.levelsCreated = created
	if err != nil {
		p.setFailed(err)
	}
	p.mu.Unlock()
	if err != nil {
		return p, err
	}
	return p, nil
}

// NewForNetwork creates an empty pyramid awaiting bytes via AppendBytes and
// DataFinished. When kind is StreamingScanline, AppendBytes directly drives
// the streaming pipeline; for other kinds bytes accumulate in a temp file
// and are decoded whole at DataFinished.
func NewForNetwork(kind codec.DecoderKind, levels int, opts ...Option) (*Pyramid, error) {
	p, err := newPyramid(levels, opts)
	if err != nil {
		return nil, err
	}
	if kind == codec.StreamingScanline {
		p.stream = &streamPyramid{decoder: codec.NewStreamingScanline(), state: AwaitingHeader}
		return p, nil
	}
	f, err := os.CreateTemp(p.cfg.tempDir, "rasterpyramid-net-*.tmp")
	if err != nil {
		return nil, ioErrorf("NewForNetwork", err)
	}
	p.netAccum = f
	p.netKind = kind
	return p, nil
}

// AppendBytes hands additional bytes to the in-progress build. For
// StreamingScanline pyramids this drives the streaming pipeline directly;
// otherwise the bytes are appended to an accumulation file for decoding at
// DataFinished.
func (p *Pyramid) AppendBytes(buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return p.failErr
	}
	if p.stream != nil {
		return p.feedStreaming(buf)
	}
	if p.netAccum == nil {
		return fmt.Errorf("pyramid: AppendBytes called on a non-network pyramid")
	}
	if _, err := p.netAccum.Write(buf); err != nil {
		return p.setFailed(ioErrorf("AppendBytes", err))
	}
	return nil
}

// DataFinished signals that no more bytes will arrive and completes the
// build. For StreamingScanline pyramids this is a no-op if Finished() was
// already reached by the last AppendBytes call; otherwise the accumulated
// bytes are decoded and run through the whole-image pipeline.
func (p *Pyramid) DataFinished() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return p.failErr
	}
	if p.stream != nil {
		if p.stream.state == StreamDone {
			return nil
		}
		if err := p.feedStreaming(nil); err != nil {
			return err
		}
		if p.stream.state != StreamDone {
			return p.setFailed(decoderErrorf("DataFinished", io.ErrUnexpectedEOF))
		}
		return nil
	}

	if p.netDone {
		return nil
	}
	p.netDone = true
	if _, err := p.netAccum.Seek(0, io.SeekStart); err != nil {
		return p.setFailed(ioErrorf("DataFinished.seek", err))
	}
	data, err := io.ReadAll(p.netAccum)
	if err != nil {
		return p.setFailed(ioErrorf("DataFinished.read", err))
	}
	img, err := codec.DecodeToImage(p.netKind, data)
	if err != nil {
		return p.setFailed(decoderErrorf("DataFinished", err))
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	write := func(whole []byte, paddedRowBytes int) error {
		codec.WriteABGR8(img, whole, paddedRowBytes)
		return nil
	}

	p.mu.Unlock()
	created, err := p.buildWholeImage(width, height, write)
	p.mu.Lock()

	p.width, p.height = width, height
	p.levelsCreated = created
	if err != nil {
		return p.setFailed(err)
	}
	return nil
}
