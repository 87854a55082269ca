package codec

import (
	"encoding/binary"
	"fmt"
)

// scanlineMagic identifies the reference streaming format: a 4-byte magic,
// a little-endian uint32 width and height, followed by height scanlines of
// width*4 raw ABGR8 bytes each. No compression — see the package doc for
// why a hand-written format, not a real image codec, is appropriate here.
var scanlineMagic = [4]byte{'S', 'C', 'N', '1'}

const scanlineHeaderLen = 4 + 4 + 4

// scanlineState is the reference decoder's internal state, tracked
// explicitly even though StreamingDecoder itself only exposes
// Feed/Header/ReadScanlines/Finished.
type scanlineState int

const (
	scanAwaitingHeader scanlineState = iota
	scanStreaming
	scanDone
	scanFailed
)

// StreamingScanline is a from-scratch reference implementation of the
// streaming pull contract: no off-the-shelf decoder fits a pull model shaped
// exactly like this, so a minimal one is written instead. This format exists
// to exercise and test the pull contract itself — header suspension,
// partial-scanline suspension, byte-at-a-time re-entry — against something
// simple enough to hand-write.
type StreamingScanline struct {
	state scanlineState
	err   error

	buf      []byte
	consumed int

	width, height int
	rowBytes      int
	rowsRead      int
}

var _ StreamingDecoder = (*StreamingScanline)(nil)

// NewStreamingScanline creates an empty decoder awaiting its header.
func NewStreamingScanline() *StreamingScanline {
	return &StreamingScanline{state: scanAwaitingHeader}
}

// Feed implements StreamingDecoder.
func (d *StreamingScanline) Feed(b []byte) (FeedResult, error) {
	if d.state == scanFailed {
		return 0, d.err
	}
	if d.state == scanDone {
		return Done, nil
	}
	d.buf = append(d.buf, b...)

	progressed := false

	if d.state == scanAwaitingHeader {
		if d.available() < scanlineHeaderLen {
			return NeedMore, nil
		}
		hdr := d.buf[d.consumed : d.consumed+scanlineHeaderLen]
		if hdr[0] != scanlineMagic[0] || hdr[1] != scanlineMagic[1] ||
			hdr[2] != scanlineMagic[2] || hdr[3] != scanlineMagic[3] {
			d.fail(fmt.Errorf("codec: bad streaming-scanline magic"))
			return 0, d.err
		}
		d.width = int(binary.LittleEndian.Uint32(hdr[4:8]))
		d.height = int(binary.LittleEndian.Uint32(hdr[8:12]))
		if d.width <= 0 || d.height < 0 {
			d.fail(fmt.Errorf("codec: invalid streaming-scanline dimensions %dx%d", d.width, d.height))
			return 0, d.err
		}
		d.rowBytes = d.width * 4
		d.consumed += scanlineHeaderLen
		d.compact()
		d.state = scanStreaming
		progressed = true
		if d.height == 0 {
			d.state = scanDone
			return Done, nil
		}
	}

	if d.available() >= d.rowBytes {
		progressed = true
	}
	if progressed {
		return Progressed, nil
	}
	return NeedMore, nil
}

// Header implements StreamingDecoder.
func (d *StreamingScanline) Header() (width, height, components int, ok bool) {
	if d.state == scanAwaitingHeader || d.state == scanFailed {
		return 0, 0, 0, false
	}
	return d.width, d.height, 3, true
}

// ReadScanlines implements StreamingDecoder.
func (d *StreamingScanline) ReadScanlines(dst [][]byte, max int) (int, error) {
	if d.state == scanFailed {
		return 0, d.err
	}
	if d.state == scanAwaitingHeader {
		return 0, nil
	}
	n := 0
	for n < max && n < len(dst) && d.rowsRead < d.height && d.available() >= d.rowBytes {
		row := d.buf[d.consumed : d.consumed+d.rowBytes]
		copy(dst[n], row)
		d.consumed += d.rowBytes
		d.rowsRead++
		n++
	}
	if n > 0 {
		d.compact()
	}
	if d.rowsRead >= d.height {
		d.state = scanDone
	}
	return n, nil
}

// Finished implements StreamingDecoder.
func (d *StreamingScanline) Finished() bool {
	return d.state == scanDone
}

func (d *StreamingScanline) available() int {
	return len(d.buf) - d.consumed
}

// compact drops already-consumed bytes once they dominate the buffer, so a
// long-running stream doesn't retain every byte it has ever seen.
func (d *StreamingScanline) compact() {
	if d.consumed == 0 {
		return
	}
	if d.consumed < 64*1024 && d.consumed < len(d.buf)/2 {
		return
	}
	remaining := len(d.buf) - d.consumed
	copy(d.buf, d.buf[d.consumed:])
	d.buf = d.buf[:remaining]
	d.consumed = 0
}

func (d *StreamingScanline) fail(err error) {
	d.state = scanFailed
	d.err = err
}

// EncodeScanlineStream is the reference encoder for the format
// StreamingScanline decodes, used by tests to build synthetic streaming
// input from an in-memory ABGR8 image.
func EncodeScanlineStream(pix []byte, width, height, rowBytes int) []byte {
	out := make([]byte, 0, scanlineHeaderLen+width*4*height)
	var hdr [scanlineHeaderLen]byte
	copy(hdr[0:4], scanlineMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(width))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(height))
	out = append(out, hdr[:]...)
	for y := 0; y < height; y++ {
		out = append(out, pix[y*rowBytes:y*rowBytes+width*4]...)
	}
	return out
}
