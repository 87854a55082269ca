package pyramid

// retileRowBand rearranges one tile row's worth of row-major pixels (src)
// into tile-major layout (dst). Both slices are exactly ScratchBytes long:
// src holds TileSize scanlines of PaddedBytesPerRow bytes each; dst holds
// Cols contiguous tiles of TileBytes each.
//
// Right-edge columns beyond the level's actual width, and bottom-edge rows
// beyond its actual height, are padding already present in src (the row
// stride and row-band count are both rounded up to tile boundaries at
// level-creation time) and are copied through unexamined — the padded
// bytes are never read back once the level is tiled.
func retileRowBand(src, dst []byte, cols, paddedBytesPerRow int) {
	for c := 0; c < cols; c++ {
		tileOff := c * TileBytes
		colOff := c * TileRowBytes
		for i := 0; i < TileSize; i++ {
			srcOff := i*paddedBytesPerRow + colOff
			dstOff := tileOff + i*TileRowBytes
			copy(dst[dstOff:dstOff+TileRowBytes], src[srcOff:srcOff+TileRowBytes])
		}
	}
}

// rowBandOffsets returns the row-major source offset and tile-major
// destination offset, both as byte offsets from the start of the level's
// file (where the scratch band sits), for tile row r. Source leads
// destination by exactly one band's worth of bytes (ScratchBytes), which is
// what lets the whole-file mode retile in place: by the time row r's
// destination band is overwritten, it holds row r-1's source band, which
// iteration r-1 has already consumed, and row r's source band (read now)
// has not yet been written as anyone's destination.
func rowBandOffsets(g Geometry, r int) (srcOff, dstOff int64) {
	band := int64(g.ScratchBytes)
	return band * int64(r+1), band * int64(r)
}

// BuildWholeFile retiles every tile row of a level that is already mapped
// whole, read-write. Rows are processed in increasing order — row 0 first,
// its destination the scratch band itself — so truncating the unused
// trailing scratch afterward is always safe.
func BuildWholeFile(lvl *Level, whole []byte) error {
	g := lvl.Geometry
	for r := 0; r < g.Rows; r++ {
		srcOff, dstOff := rowBandOffsets(g, r)
		src := whole[srcOff : srcOff+int64(g.ScratchBytes)]
		dst := whole[dstOff : dstOff+int64(g.ScratchBytes)]
		retileRowBand(src, dst, g.Cols, g.PaddedBytesPerRow)
	}
	lvl.Row = g.Rows
	return nil
}

// BuildStreamingRow retiles exactly one tile row band of a level, mapping
// only the source and destination stripes needed for that row. It is the
// function called every time a level's Outline crosses a multiple of
// TileSize.
//
// Calling this twice with the same row is idempotent: it reads and
// rewrites the same two byte ranges to the same result.
func BuildStreamingRow(m *Mapper, lvl *Level, row int) error {
	g := lvl.Geometry
	srcOff, dstOff := rowBandOffsets(g, row)

	srcWin, err := m.MapWindow(lvl, srcOff, g.ScratchBytes, ReadOnly)
	if err != nil {
		return err
	}
	defer srcWin.Release()

	dstWin, err := m.MapWindow(lvl, dstOff, g.ScratchBytes, ReadWrite)
	if err != nil {
		return err
	}
	defer dstWin.Release()

	retileRowBand(srcWin.Data, dstWin.Data, g.Cols, g.PaddedBytesPerRow)
	if row+1 > lvl.Row {
		lvl.Row = row + 1
	}
	return nil
}

// BuildRemainingRows retiles every tile row from lvl.Row up to Geometry.Rows
// using the streaming (windowed) path. Used by end-of-stream finalization
// for levels whose last partial tile row never crossed a TileSize boundary
// on its own.
func BuildRemainingRows(m *Mapper, lvl *Level) error {
	for r := lvl.Row; r < lvl.Geometry.Rows; r++ {
		if err := BuildStreamingRow(m, lvl, r); err != nil {
			return err
		}
	}
	return nil
}
