package pyramid

import (
	"fmt"
	"log"

	"github.com/arourke/rasterpyramid/internal/codec"
)

// streamState is the streaming pipeline's explicit state machine.
type streamState int

const (
	AwaitingHeader streamState = iota
	StreamingScanlines
	Finalizing
	StreamDone
	StreamFailed
)

// streamPyramid holds the extra bookkeeping the streaming constructors need
// on top of the base Pyramid fields: the pull decoder, its state, and the
// level-0 scanline cursor.
type streamPyramid struct {
	decoder  codec.StreamingDecoder
	state    streamState
	scanline int // next level-0 row index to write
	lineBuf  []byte
}

// feedStreaming drives the scanline state machine one Feed call's worth,
// creating levels once the header is known and writing every scanline that
// becomes available. Called with p.mu held.
func (p *Pyramid) feedStreaming(buf []byte) error {
	s := p.stream
	if s.state == StreamFailed {
		return p.failErr
	}
	if s.state == StreamDone {
		return nil
	}

	result, err := s.decoder.Feed(buf)
	if err != nil {
		s.state = StreamFailed
		return p.setFailed(decoderErrorf("AppendBytes", err))
	}
	if result == codec.NeedMore {
		return nil
	}

	if s.state == AwaitingHeader {
		w, h, _, ok := s.decoder.Header()
		if !ok {
			return nil
		}
		created, err := p.createLevelsForStreaming(w, h)
		if err != nil {
			s.state = StreamFailed
			return p.setFailed(err)
		}
		p.width, p.height = w, h
		p.levelsCreated = created
		s.lineBuf = make([]byte, w*4)
		s.state = StreamingScanlines
		if p.cfg.verbose {
			log.Printf("pyramid: streaming header %dx%d, %d levels created", w, h, created)
		}
	}

	if err := p.pumpScanlines(); err != nil {
		s.state = StreamFailed
		return p.setFailed(err)
	}

	if s.decoder.Finished() {
		s.state = Finalizing
		if err := p.finalizeStreaming(); err != nil {
			s.state = StreamFailed
			return p.setFailed(err)
		}
		s.state = StreamDone
	}
	return nil
}

// createLevelsForStreaming creates every level up front (the streaming
// pipeline downsamples opportunistically into all of them as level 0's
// scanlines arrive, so every backing file must exist before the first
// scanline is written). Levels whose dimensions degenerate to zero are
// skipped, matching the whole-image pipeline's boundary behavior.
func (p *Pyramid) createLevelsForStreaming(width, height int) (int, error) {
	p.cfg.flusher.WaitForCapacity()
	if _, err := p.mapper.CreateLevel(0, width, height); err != nil {
		return 0, err
	}
	count := 1
	for k := 1; k < p.levelCount; k++ {
		kw, kh := levelDims(width, height, k)
		if kw == 0 || kh == 0 {
			break
		}
		p.cfg.flusher.WaitForCapacity()
		if _, err := p.mapper.CreateLevel(k, kw, kh); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// pumpScanlines reads every scanline currently available from the decoder
// and writes it through the pyramid, retiling completed tile rows as they
// close.
func (p *Pyramid) pumpScanlines() error {
	s := p.stream
	dst := [][]byte{s.lineBuf}
	for {
		n, err := s.decoder.ReadScanlines(dst, 1)
		if err != nil {
			return decoderErrorf("ReadScanlines", err)
		}
		if n == 0 {
			return nil
		}
		if err := p.writeScanline(s.scanline, s.lineBuf); err != nil {
			return err
		}
		s.scanline++
	}
}

// writeScanline implements one iteration of the streaming pipeline's
// per-scanline step: write into level 0, opportunistically downsample into
// every level whose stride aligns, then retile any tile row that has just
// completed.
func (p *Pyramid) writeScanline(s int, line []byte) error {
	lvl0 := p.mapper.Level(0)
	if err := p.writeLevelScanline(lvl0, s, line); err != nil {
		return err
	}
	lvl0.Outline = s + 1

	for k := 1; k < p.levelsCreated; k++ {
		factor := 1 << uint(k)
		if s%factor != 0 {
			continue
		}
		lvlK := p.mapper.Level(k)
		if lvlK == nil {
			break
		}
		destRow := s / factor
		if destRow >= lvlK.Geometry.Height {
			continue
		}
		if err := p.downsampleScanline(lvlK, destRow, line, factor); err != nil {
			return err
		}
		lvlK.Outline = destRow + 1
	}

	if (s+1)%TileSize != 0 {
		return nil
	}
	for k := 0; k < p.levelsCreated; k++ {
		stride := TileSize << uint(k)
		if (s+1)%stride != 0 {
			continue
		}
		lvlK := p.mapper.Level(k)
		row := lvlK.Row
		if err := BuildStreamingRow(p.mapper, lvlK, row); err != nil {
			return err
		}
	}
	return nil
}

// writeLevelScanline maps a one-scanline read-write window at level row s
// and copies line into it.
func (p *Pyramid) writeLevelScanline(lvl *Level, s int, line []byte) error {
	off := int64(lvl.Geometry.ScratchBytes) + int64(s)*int64(lvl.Geometry.PaddedBytesPerRow)
	win, err := p.mapper.MapWindow(lvl, off, lvl.Geometry.PaddedBytesPerRow, ReadWrite)
	if err != nil {
		return err
	}
	defer win.Release()
	copy(win.Data, line)
	return nil
}

// downsampleScanline maps a one-scanline write-only window at level lvl's
// row destRow and fills it from line by picking every factor-th pixel.
func (p *Pyramid) downsampleScanline(lvl *Level, destRow int, line []byte, factor int) error {
	off := int64(lvl.Geometry.ScratchBytes) + int64(destRow)*int64(lvl.Geometry.PaddedBytesPerRow)
	win, err := p.mapper.MapWindow(lvl, off, lvl.Geometry.PaddedBytesPerRow, WriteOnly)
	if err != nil {
		return err
	}
	defer win.Release()
	downsampleScanlineInto(line, win.Data, factor, lvl.Geometry.Width)
	return nil
}

// finalizeStreaming retiles every level's remaining rows and truncates its
// scratch band once the decoder reports no more scanlines.
func (p *Pyramid) finalizeStreaming() error {
	for k := 0; k < p.levelsCreated; k++ {
		lvl := p.mapper.Level(k)
		if lvl == nil {
			return fmt.Errorf("pyramid: level %d missing during finalize", k)
		}
		if err := BuildRemainingRows(p.mapper, lvl); err != nil {
			return err
		}
		if err := p.mapper.TruncateScratch(lvl); err != nil {
			return err
		}
		if p.cfg.flushEverything() {
			p.cfg.flusher.LevelFinalized(lvl.Fd(), lvl.Geometry.TiledFileSize())
		}
		if p.cfg.verbose {
			log.Printf("pyramid: level %d finalized (%d bytes tiled)", lvl.Index, lvl.Geometry.TiledFileSize())
		}
	}
	return nil
}
