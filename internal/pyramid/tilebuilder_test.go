package pyramid

import "testing"

// fillGradient writes an R=x%256, G=0, B=0, A=255 gradient into a row-major
// region of the given geometry.
func fillGradient(region []byte, g Geometry) {
	for y := 0; y < g.Height; y++ {
		row := region[y*g.PaddedBytesPerRow:]
		for x := 0; x < g.Width; x++ {
			off := x * BytesPerPixel
			row[off+0] = byte(x % 256)
			row[off+1] = 0
			row[off+2] = 0
			row[off+3] = 255
		}
	}
}

// tilePixel reads the R byte of pixel (px, py) of tile (r, c) out of a
// finalized (tile-major) file region.
func tilePixel(tiled []byte, cols int, r, c, px, py int) byte {
	tileOff := (r*cols + c) * TileBytes
	rowOff := tileOff + py*TileRowBytes
	return tiled[rowOff+px*BytesPerPixel]
}

func TestBuildWholeFile_MatchesSourcePixels(t *testing.T) {
	width, height := 300, 200
	g := computeGeometry(width, height)

	whole := make([]byte, g.MappedSize)
	fillGradient(whole[g.ScratchBytes:], g)

	lvl := &Level{Index: 0, Geometry: g}
	if err := BuildWholeFile(lvl, whole); err != nil {
		t.Fatalf("BuildWholeFile: %v", err)
	}
	if lvl.Row != g.Rows {
		t.Fatalf("lvl.Row = %d, want %d", lvl.Row, g.Rows)
	}

	tiled := whole[:g.TiledFileSize()]

	// Tile (0,0) pixel (0,0): source x=0 -> R=0.
	if got := tilePixel(tiled, g.Cols, 0, 0, 0, 0); got != 0 {
		t.Errorf("tile(0,0) pixel(0,0) R = %d, want 0", got)
	}
	// Tile (0,0) pixel (255,0): source x=255 -> R=255.
	if got := tilePixel(tiled, g.Cols, 0, 0, 255, 0); got != 255 {
		t.Errorf("tile(0,0) pixel(255,0) R = %d, want 255", got)
	}
	// Tile (0,1) pixel (0,0): source x=256 -> R=0 (256 mod 256).
	if got := tilePixel(tiled, g.Cols, 0, 1, 0, 0); got != 0 {
		t.Errorf("tile(0,1) pixel(0,0) R = %d, want 0", got)
	}
	// Tile (0,1) pixel (43,0): source x=299 -> R=43, last defined column.
	if got := tilePixel(tiled, g.Cols, 0, 1, 43, 0); got != 43 {
		t.Errorf("tile(0,1) pixel(43,0) R = %d, want 43", got)
	}
}

func TestRetileRowBand_Idempotent(t *testing.T) {
	width, height := 257, 1
	g := computeGeometry(width, height)

	src := make([]byte, g.ScratchBytes)
	fillGradient(src, Geometry{Width: width, Height: TileSize, PaddedBytesPerRow: g.PaddedBytesPerRow})

	dst1 := make([]byte, g.ScratchBytes)
	retileRowBand(src, dst1, g.Cols, g.PaddedBytesPerRow)

	dst2 := make([]byte, g.ScratchBytes)
	retileRowBand(src, dst2, g.Cols, g.PaddedBytesPerRow)

	for i := range dst1 {
		if dst1[i] != dst2[i] {
			t.Fatalf("retileRowBand not idempotent at byte %d: %d != %d", i, dst1[i], dst2[i])
		}
	}
}

func TestRowBandOffsets_SourceLeadsDestinationByOneBand(t *testing.T) {
	g := computeGeometry(1024, 768)
	for r := 0; r < g.Rows; r++ {
		srcOff, dstOff := rowBandOffsets(g, r)
		if srcOff-dstOff != int64(g.ScratchBytes) {
			t.Fatalf("row %d: srcOff-dstOff = %d, want %d", r, srcOff-dstOff, g.ScratchBytes)
		}
	}
}
