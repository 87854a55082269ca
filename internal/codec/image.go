package codec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/webp"
)

// WriteABGR8 copies img's pixels into dst at the given row stride. ABGR8's
// little-endian memory order is R, G, B, A per byte — the same layout
// image.RGBA.Pix already uses — so the fast path below (when the source is
// already an *image.RGBA) is a plain row copy; the general path goes
// through At().RGBA() for other source image types.
func WriteABGR8(img image.Image, dst []byte, rowBytes int) {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		w := b.Dx()
		for y := 0; y < b.Dy(); y++ {
			srcRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
			copy(dst[y*rowBytes:], srcRow)
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst[(y-b.Min.Y)*rowBytes:]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			off := (x - b.Min.X) * 4
			row[off+0] = byte(r >> 8)
			row[off+1] = byte(g >> 8)
			row[off+2] = byte(bl >> 8)
			row[off+3] = byte(a >> 8)
		}
	}
}

// DecodeToImage fully decodes input with the adapter selected by kind,
// returning the decoded image. NewFromPath uses this once to learn the
// source's dimensions before creating pyramid levels, then writes its
// pixels directly via WriteABGR8 — the formal OneShotDecoder.Decode method
// still exists and is independently exercised by tests for callers who
// already know the target dimensions ahead of time.
//
// kind must be CgStyleOneShot or OneShotTurbo; StreamingScanline has no
// one-shot decode path.
func DecodeToImage(kind DecoderKind, input []byte) (image.Image, error) {
	switch kind {
	case CgStyleOneShot:
		return decodeImage(input)
	case OneShotTurbo:
		img, err := webp.Decode(bytes.NewReader(input))
		if err != nil {
			return nil, fmt.Errorf("codec: webp decode: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("codec: %s has no one-shot decode path", kind)
	}
}
