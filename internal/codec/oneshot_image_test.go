package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: byte(x), G: byte(y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestImageOneShot_DecodeMatchesSourcePixels(t *testing.T) {
	width, height := 10, 6
	encoded := encodeTestPNG(t, width, height)

	dstRowBytes := width * 4
	dst := make([]byte, dstRowBytes*height)
	if err := (ImageOneShot{}).Decode(encoded, dst, dstRowBytes, width, height, ABGR8); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	off := 3*dstRowBytes + 4*4
	if dst[off] != 4 || dst[off+1] != 3 || dst[off+2] != 7 {
		t.Fatalf("pixel(4,3) = %v, want R4 G3 B7", dst[off:off+4])
	}
}

func TestImageOneShot_DimensionMismatchFails(t *testing.T) {
	encoded := encodeTestPNG(t, 10, 6)
	dst := make([]byte, 10*4*6)
	if err := (ImageOneShot{}).Decode(encoded, dst, 10*4, 9, 6, ABGR8); err == nil {
		t.Fatal("expected an error when the caller's requested dimensions don't match")
	}
}

func TestDecodeToImage_CgStyleOneShot(t *testing.T) {
	encoded := encodeTestPNG(t, 3, 3)
	img, err := DecodeToImage(CgStyleOneShot, encoded)
	if err != nil {
		t.Fatalf("DecodeToImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 3 {
		t.Fatalf("decoded bounds = %v, want 3x3", b)
	}
}

func TestDecodeToImage_StreamingKindRejected(t *testing.T) {
	if _, err := DecodeToImage(StreamingScanline, nil); err == nil {
		t.Fatal("expected an error requesting a one-shot decode of the streaming kind")
	}
}
