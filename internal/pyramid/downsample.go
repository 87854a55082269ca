package pyramid

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Strategy selects the downsampling algorithm used to build level k+1 from
// level k.
type Strategy int

const (
	// Decimate picks one out of every two pixels and rows. No filtering.
	Decimate Strategy = iota
	// HighQuality delegates to an external resampler (golang.org/x/image/draw).
	HighQuality
)

// downsampleLevel writes level dst (k+1) from level src (k), reading only
// from src's row-major region and writing only to dst's row-major region.
// Both levels must already be whole-mapped by the caller.
func downsampleLevel(strategy Strategy, srcWhole []byte, srcGeom Geometry, dstWhole []byte, dstGeom Geometry) error {
	srcRegion := srcWhole[srcGeom.ScratchBytes:]
	dstRegion := dstWhole[dstGeom.ScratchBytes:]

	if err := adviseSequential(srcRegion); err != nil {
		_ = err // best-effort hint only
	}
	defer func() { _ = adviseWillNotNeed(srcRegion) }()

	switch strategy {
	case HighQuality:
		if highQualityDownsample(srcRegion, srcGeom, dstRegion, dstGeom) {
			return nil
		}
		fallthrough
	default:
		decimateRegion(srcRegion, srcGeom, dstRegion, dstGeom)
		return nil
	}
}

// decimateRegion implements the default decimation strategy:
// dst[r][c] = src[2r][2c] for every destination row and column.
func decimateRegion(srcRegion []byte, srcGeom Geometry, dstRegion []byte, dstGeom Geometry) {
	for r := 0; r < dstGeom.Height; r++ {
		srcRowOff := (2 * r) * srcGeom.PaddedBytesPerRow
		dstRowOff := r * dstGeom.PaddedBytesPerRow
		srcRow := srcRegion[srcRowOff:]
		dstRow := dstRegion[dstRowOff:]
		for c := 0; c < dstGeom.Width; c++ {
			so := (2 * c) * BytesPerPixel
			do := c * BytesPerPixel
			copy(dstRow[do:do+BytesPerPixel], srcRow[so:so+BytesPerPixel])
		}
	}
}

// highQualityDownsample delegates to golang.org/x/image/draw's Catmull-Rom
// scaler. ABGR8's little-endian memory order is R, G, B, A per byte — the
// same layout image.RGBA.Pix already uses — so the mapped row-major region
// can be wrapped as an *image.RGBA view with its native padded stride, with
// no pixel copy or channel reshuffle. Returns false (caller falls back to
// Decimate) if either extent is empty.
func highQualityDownsample(srcRegion []byte, srcGeom Geometry, dstRegion []byte, dstGeom Geometry) bool {
	if srcGeom.Width == 0 || srcGeom.Height == 0 || dstGeom.Width == 0 || dstGeom.Height == 0 {
		return false
	}

	src := &image.RGBA{
		Pix:    srcRegion,
		Stride: srcGeom.PaddedBytesPerRow,
		Rect:   image.Rect(0, 0, srcGeom.Width, srcGeom.Height),
	}
	dst := &image.RGBA{
		Pix:    dstRegion,
		Stride: dstGeom.PaddedBytesPerRow,
		Rect:   image.Rect(0, 0, dstGeom.Width, dstGeom.Height),
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return true
}

// downsampleScanlineInto copies every (1<<level)-th pixel of a single
// just-written level-0 scanline into a destination scanline at the given
// level, for the streaming pipeline's opportunistic per-scanline downsample.
// factor is 1<<level.
func downsampleScanlineInto(srcScanline []byte, dstScanline []byte, factor, dstWidth int) {
	for c := 0; c < dstWidth; c++ {
		so := (c * factor) * BytesPerPixel
		do := c * BytesPerPixel
		copy(dstScanline[do:do+BytesPerPixel], srcScanline[so:so+BytesPerPixel])
	}
}
