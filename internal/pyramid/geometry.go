// Package pyramid builds a pre-tiled multi-resolution pyramid of a raster
// image on local disk: one memory-mapped backing file per zoom level,
// rearranged from row-major scanlines into contiguous square tiles.
package pyramid

// TileSize is the tile side in pixels.
const TileSize = 256

// BytesPerPixel is the in-memory pixel footprint: 8-bit ABGR, alpha ignored on read.
const BytesPerPixel = 4

// TileRowBytes is the byte length of one scanline within a tile.
const TileRowBytes = TileSize * BytesPerPixel

// TileBytes is the byte length of one whole tile (TileSize scanlines).
const TileBytes = TileRowBytes * TileSize

// Geometry holds the derived layout of one pyramid level, computed once at
// level creation time.
type Geometry struct {
	Width, Height int // pixel dimensions at this level
	Cols, Rows    int // ceil(dim / TileSize) tile counts

	PaddedBytesPerRow int // row stride while the level is still row-major
	ScratchBytes      int // one tile row's worth of slack at file offset 0
	MappedSize        int64 // total backing file size before the final truncate
}

// ceilDiv returns ceil(a / b) for non-negative a and positive b.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// computeGeometry derives a level's layout from its pixel dimensions.
//
// Invariant: PaddedBytesPerRow % TileRowBytes == 0, and
// PaddedBytesPerRow*Rows*TileSize + ScratchBytes == MappedSize.
func computeGeometry(width, height int) Geometry {
	g := Geometry{Width: width, Height: height}
	g.Cols = ceilDiv(width, TileSize)
	g.Rows = ceilDiv(height, TileSize)
	g.PaddedBytesPerRow = g.Cols * TileRowBytes
	g.ScratchBytes = g.PaddedBytesPerRow * TileSize
	g.MappedSize = int64(g.PaddedBytesPerRow)*int64(g.Rows)*int64(TileSize) + int64(g.ScratchBytes)
	return g
}

// levelDims returns the width/height of level k derived from the level-0
// dimensions, by repeated integer-division halving.
func levelDims(width0, height0, k int) (int, int) {
	return width0 >> uint(k), height0 >> uint(k)
}

// TiledFileSize reports the on-disk size of a finalized level's file: the
// tiled payload only, with no trailing scratch.
func (g Geometry) TiledFileSize() int64 {
	return int64(g.Cols) * int64(g.Rows) * int64(TileBytes)
}
