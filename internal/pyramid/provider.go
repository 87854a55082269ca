package pyramid

import (
	"fmt"
	"math"
)

// Provider hands out random-access reads of individual tiles from a set of
// already-retiled levels. It maps exactly the requested tile on each call
// and relies on fdRef so a tile outstanding past the pyramid's own Close
// keeps its level's descriptor alive.
type Provider struct {
	mapper *Mapper
}

// NewProvider wraps m for tile read-back.
func NewProvider(m *Mapper) *Provider {
	return &Provider{mapper: m}
}

// LevelForScaleFraction maps a scale fraction in (0, 1] to a discrete level
// index, rounding to the nearest level and clamping to [0, maxLevel].
// 1.0 maps to level 0, 0.5 to level 1, and so on.
func LevelForScaleFraction(scaleFraction float64, maxLevel int) int {
	if scaleFraction <= 0 || scaleFraction > 1 {
		scaleFraction = 1
	}
	lvl := int(math.Round(math.Log2(1 / scaleFraction)))
	if lvl < 0 {
		lvl = 0
	}
	if lvl > maxLevel {
		lvl = maxLevel
	}
	return lvl
}

// TileImage is one TileSize x TileSize tile's pixels, mapped read-only.
// Release must be called exactly once when the caller is done with Pix.
type TileImage struct {
	ref   *fdRef
	win   *Window
	Level int
	Row   int
	Col   int
}

// Pix returns the tile's raw ABGR8 pixels: TileSize rows of TileRowBytes
// each, top-left pixel first. Out-of-bounds padding pixels (right/bottom
// edge tiles) have unspecified bytes.
func (t *TileImage) Pix() []byte { return t.win.Data }

// Release unmaps the tile and drops its reference on the level's descriptor.
func (t *TileImage) Release() error {
	err := t.win.Release()
	if rerr := t.ref.release(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// TileAt maps the tile at (level implied by scaleFraction, row, col)
// read-only. The level must already be finalized (tile-major). A scale
// fraction whose level lies beyond maxLevel is an OutOfRange error.
func (p *Provider) TileAt(scaleFraction float64, row, col, maxLevel int) (*TileImage, error) {
	lvl := LevelForScaleFraction(scaleFraction, math.MaxInt32)
	if lvl > maxLevel {
		return nil, outOfRangeErrorf("TileAt", fmt.Errorf("level %d does not exist (max level %d)", lvl, maxLevel))
	}
	level := p.mapper.Level(lvl)
	if level == nil {
		return nil, outOfRangeErrorf("TileAt", fmt.Errorf("level %d does not exist", lvl))
	}
	geom := level.Geometry
	if row < 0 || row >= geom.Rows || col < 0 || col >= geom.Cols {
		return nil, outOfRangeErrorf("TileAt", fmt.Errorf("level %d: (row %d, col %d) out of range for %dx%d tiles", lvl, row, col, geom.Rows, geom.Cols))
	}

	offset := (int64(row)*int64(geom.Cols) + int64(col)) * int64(TileBytes)
	ref := level.ref.acquire()
	win, err := p.mapper.MapWindow(level, offset, TileBytes, ReadOnly)
	if err != nil {
		_ = ref.release()
		return nil, err
	}
	return &TileImage{ref: ref, win: win, Level: lvl, Row: row, Col: col}, nil
}
