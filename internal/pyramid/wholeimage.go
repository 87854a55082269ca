package pyramid

import "log"

// pixelWriter copies a fully-decoded image's pixels into whole, a
// whole-mapped level-0 region, at the given padded row stride.
type pixelWriter func(whole []byte, paddedRowBytes int) error

// buildWholeImage runs the whole-image pipeline: create level 0, let write
// populate its row-major region, then for each subsequent level create,
// downsample, tile-build and truncate the previous level in turn, finishing
// with a final tile-build pass over the last level created.
//
// Levels whose dimensions degenerate to zero in either axis are skipped
// entirely rather than producing empty files; levelsCreated reports how
// many levels actually exist on return.
func (p *Pyramid) buildWholeImage(width, height int, write pixelWriter) (levelsCreated int, err error) {
	p.cfg.flusher.WaitForCapacity()
	lvl0, err := p.mapper.CreateLevel(0, width, height)
	if err != nil {
		return 0, err
	}
	whole0, err := p.mapper.MapWhole(lvl0, ReadWrite)
	if err != nil {
		return 0, err
	}
	if err := write(whole0[lvl0.Geometry.ScratchBytes:], lvl0.Geometry.PaddedBytesPerRow); err != nil {
		return 0, decoderErrorf("buildWholeImage.write", err)
	}

	prev, prevWhole := lvl0, whole0
	count := 1
	for k := 1; k < p.levelCount; k++ {
		kw, kh := levelDims(width, height, k)
		if kw == 0 || kh == 0 {
			break
		}

		p.cfg.flusher.WaitForCapacity()
		next, err := p.mapper.CreateLevel(k, kw, kh)
		if err != nil {
			return count, err
		}
		nextWhole, err := p.mapper.MapWhole(next, ReadWrite)
		if err != nil {
			return count, err
		}

		if err := downsampleLevel(p.cfg.strategy, prevWhole, prev.Geometry, nextWhole, next.Geometry); err != nil {
			return count, err
		}
		if err := p.finalizeWholeLevel(prev, prevWhole); err != nil {
			return count, err
		}

		prev, prevWhole = next, nextWhole
		count++
	}

	if err := p.finalizeWholeLevel(prev, prevWhole); err != nil {
		return count, err
	}
	return count, nil
}

// finalizeWholeLevel retiles a whole-mapped level in place, unmaps it,
// truncates its trailing scratch band, and — when the configuration calls
// for it — hands it to the flush coordinator.
func (p *Pyramid) finalizeWholeLevel(lvl *Level, whole []byte) error {
	if err := BuildWholeFile(lvl, whole); err != nil {
		return err
	}
	if err := p.mapper.UnmapWhole(lvl); err != nil {
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
	return nil
}
