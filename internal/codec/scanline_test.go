package codec

import "testing"

func TestStreamingScanline_ByteAtATimeFeed(t *testing.T) {
	width, height := 4, 3
	pix := make([]byte, width*height*4)
	for i := range pix {
		pix[i] = byte(i)
	}
	encoded := EncodeScanlineStream(pix, width, height, width*4)

	d := NewStreamingScanline()
	for i, b := range encoded {
		res, err := d.Feed([]byte{b})
		if err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
		_ = res
	}

	w, h, _, ok := d.Header()
	if !ok || w != width || h != height {
		t.Fatalf("Header = %d,%d,%v, want %d,%d,true", w, h, ok, width, height)
	}

	dst := make([][]byte, height)
	for i := range dst {
		dst[i] = make([]byte, width*4)
	}
	n, err := d.ReadScanlines(dst, height)
	if err != nil {
		t.Fatalf("ReadScanlines: %v", err)
	}
	if n != height {
		t.Fatalf("ReadScanlines returned %d rows, want %d", n, height)
	}
	if !d.Finished() {
		t.Fatal("decoder should report Finished after all rows read")
	}
	for y := 0; y < height; y++ {
		want := pix[y*width*4 : (y+1)*width*4]
		for i, v := range want {
			if dst[y][i] != v {
				t.Fatalf("row %d byte %d = %d, want %d", y, i, dst[y][i], v)
			}
		}
	}
}

func TestStreamingScanline_NeedMoreBeforeHeader(t *testing.T) {
	d := NewStreamingScanline()
	res, err := d.Feed([]byte{'S', 'C'})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if res != NeedMore {
		t.Fatalf("Feed with partial header = %v, want NeedMore", res)
	}
	if _, _, _, ok := d.Header(); ok {
		t.Fatal("Header should not be available before enough bytes are fed")
	}
}

func TestStreamingScanline_BadMagicFails(t *testing.T) {
	d := NewStreamingScanline()
	bad := make([]byte, scanlineHeaderLen)
	copy(bad, "XXXX")
	_, err := d.Feed(bad)
	if err == nil {
		t.Fatal("expected an error for a bad magic header")
	}
	if _, err2 := d.Feed(nil); err2 == nil {
		t.Fatal("decoder should remain failed on subsequent Feed calls")
	}
}

func TestStreamingScanline_ZeroHeightIsImmediatelyDone(t *testing.T) {
	encoded := EncodeScanlineStream(nil, 4, 0, 16)
	d := NewStreamingScanline()
	res, err := d.Feed(encoded)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if res != Done || !d.Finished() {
		t.Fatalf("zero-height stream should finish immediately, got res=%v finished=%v", res, d.Finished())
	}
}
