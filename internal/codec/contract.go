// Package codec defines the two decoder contracts the pyramid core depends
// on: a one-shot "decompress the whole thing into this buffer" push, and a
// streaming "give me the next N scanlines" pull. The actual compressed-image
// codec is an external collaborator; this package's job is the contract plus
// small reference adapters good enough to drive and test the pyramid end to
// end.
package codec

import "fmt"

// PixelFormat identifies the in-memory pixel layout a decoder must produce.
// The core only ever asks for ABGR8.
type PixelFormat int

// ABGR8 is 8 bits per channel, alpha/blue/green/red in little-endian memory
// order.
const ABGR8 PixelFormat = 0

// DecoderKind selects which adapter a producer constructor wires up.
type DecoderKind int

const (
	// CgStyleOneShot decodes a complete buffer in one call, the way a
	// CoreGraphics-backed image decoder would.
	CgStyleOneShot DecoderKind = iota
	// StreamingScanline pulls scanlines incrementally as compressed bytes
	// arrive, suspending on NeedMore.
	StreamingScanline
	// OneShotTurbo is a second one-shot variant backed by a different,
	// faster non-stdlib codec.
	OneShotTurbo
)

func (k DecoderKind) String() string {
	switch k {
	case CgStyleOneShot:
		return "cg-style-one-shot"
	case StreamingScanline:
		return "streaming-scanline"
	case OneShotTurbo:
		return "one-shot-turbo"
	default:
		return "unknown"
	}
}

// OneShotDecoder decompresses a complete input buffer directly into a
// caller-owned destination, at the caller's stride, width and height.
// Returns an error if the decoded image's dimensions don't match
// (width, height), or if the codec cannot decode the input at all.
type OneShotDecoder interface {
	Decode(input []byte, dst []byte, dstRowBytes, width, height int, format PixelFormat) error
}

// FeedResult reports what Feed accomplished this call.
type FeedResult int

const (
	// NeedMore means the decoder consumed what it could but needs more
	// compressed bytes before it can produce anything further.
	NeedMore FeedResult = iota
	// Progressed means at least one new scanline is now available via
	// ReadScanlines (or the header became available via Header).
	Progressed
	// Done means the decoder has produced every scanline of the image.
	Done
)

// StreamingDecoder pulls scanlines incrementally from compressed bytes
// handed in via Feed. Implementations must be safe to call Feed repeatedly
// with partial input — suspending (NeedMore) holds no locks and blocks on
// nothing.
type StreamingDecoder interface {
	// Feed hands additional compressed bytes to the decoder. Idempotent
	// with respect to partial input.
	Feed(buf []byte) (FeedResult, error)
	// Header reports the image dimensions and component count once known.
	// ok is false until enough bytes have been fed to parse a header.
	Header() (width, height, components int, ok bool)
	// ReadScanlines writes up to max decoded scanlines (ABGR8, one row
	// stride per entry in dst) and returns how many were written. May
	// return 0 if the decoder is currently suspended.
	ReadScanlines(dst [][]byte, max int) (int, error)
	// Finished reports whether every scanline of the image has been
	// produced.
	Finished() bool
}

// errNeedMore is the suspension error ErrNeedMore recognizes; it is not a
// fatal DecoderError. The reference StreamingScanline adapter does not
// return it: it reports suspension as the NeedMore FeedResult.
var errNeedMore = fmt.Errorf("codec: need more input")

// ErrNeedMore reports whether err represents decoder suspension rather than
// a fatal failure.
func ErrNeedMore(err error) bool { return err == errNeedMore }
