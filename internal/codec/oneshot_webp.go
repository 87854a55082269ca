package codec

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/webp"
)

// WebPOneShot wraps gen2brain/webp (a WASM-compiled libwebp via wazero) as
// the OneShotTurbo decoder variant: a second, faster one-shot codec standing
// alongside the stdlib one, repurposed here from output encoding to input
// decoding.
type WebPOneShot struct{}

var _ OneShotDecoder = WebPOneShot{}

// Decode implements OneShotDecoder.
func (WebPOneShot) Decode(input []byte, dst []byte, dstRowBytes, width, height int, format PixelFormat) error {
	img, err := webp.Decode(bytes.NewReader(input))
	if err != nil {
		return fmt.Errorf("codec: webp decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("codec: decoded webp is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	WriteABGR8(img, dst, dstRowBytes)
	return nil
}
