package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageOneShot wraps the stdlib image package's auto-detecting decoder
// (png/jpeg/gif self-register via blank import). Named for the
// CgStyleOneShot decoder kind: like a CoreGraphics-backed decoder, it hands
// back a fully decoded image from one call.
type ImageOneShot struct{}

var _ OneShotDecoder = ImageOneShot{}

// Decode implements OneShotDecoder.
func (ImageOneShot) Decode(input []byte, dst []byte, dstRowBytes, width, height int, format PixelFormat) error {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("codec: image decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("codec: decoded image is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	WriteABGR8(img, dst, dstRowBytes)
	return nil
}

// decodeImage decodes input with the stdlib auto-detecting decoder,
// returning the decoded image.
func decodeImage(input []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("codec: image decode: %w", err)
	}
	return img, nil
}
