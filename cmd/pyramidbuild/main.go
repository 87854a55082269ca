// Command pyramidbuild builds a tiled multi-resolution pyramid from a single
// image file and reports the resulting level geometry.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arourke/rasterpyramid/internal/codec"
	"github.com/arourke/rasterpyramid/internal/flush"
	"github.com/arourke/rasterpyramid/internal/pyramid"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		levels            int
		decoderKind       string
		downsampler       string
		flushDiskCache    bool
		memoryConstrained bool
		verbose           bool
		showVersion       bool
	)

	flag.IntVar(&levels, "levels", 3, "Number of pyramid levels to produce")
	flag.StringVar(&decoderKind, "decoder", "cg-style-one-shot", "Decoder adapter: cg-style-one-shot, one-shot-turbo")
	flag.StringVar(&downsampler, "downsampler", "decimate", "Downsampling strategy: decimate, high-quality")
	flag.BoolVar(&flushDiskCache, "flush-disk-cache", false, "Always schedule a background fsync per finalized level")
	flag.BoolVar(&memoryConstrained, "memory-constrained", false, "Force low-memory flush behavior regardless of the probed RAM total")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pyramidbuild [flags] <input-image>\n\n")
		fmt.Fprintf(os.Stderr, "Build a tiled multi-resolution pyramid from a single image file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("pyramidbuild %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath := args[0]

	kind, err := parseDecoderKind(decoderKind)
	if err != nil {
		log.Fatalf("Decoder: %v", err)
	}
	strategy, err := parseStrategy(downsampler)
	if err != nil {
		log.Fatalf("Downsampler: %v", err)
	}

	flush.Init(flush.Config{Verbose: verbose})

	opts := []pyramid.Option{
		pyramid.WithDownsampler(strategy),
		pyramid.WithFlushDiskCache(flushDiskCache),
		pyramid.WithVerbose(verbose),
	}
	if memoryConstrained {
		opts = append(opts, pyramid.WithMemoryConstrained(true))
	}

	if verbose {
		log.Printf("Building pyramid from %s (levels=%d, decoder=%s, downsampler=%s)", inputPath, levels, decoderKind, downsampler)
	}

	p, err := pyramid.NewFromPath(inputPath, kind, levels, opts...)
	if err != nil {
		log.Fatalf("Building pyramid: %v", err)
	}
	defer p.Close()
	defer func() {
		if err := flush.Shutdown(); err != nil {
			log.Printf("Waiting for background fsyncs: %v", err)
		}
	}()

	width, height := p.ImageSize()
	fmt.Printf("image: %dx%d\n", width, height)

	for k := 0; k < levels; k++ {
		tile, err := p.TileAt(scaleFractionForLevel(k), 0, 0)
		if err != nil {
			if pyramid.IsOutOfRange(err) {
				break
			}
			log.Fatalf("Reading level %d: %v", k, err)
		}
		fmt.Printf("level %d: tile (0,0) present, %d bytes\n", k, len(tile.Pix()))
		tile.Release()
	}
}

func scaleFractionForLevel(level int) float64 {
	return 1.0 / float64(int(1)<<uint(level))
}

func parseDecoderKind(s string) (codec.DecoderKind, error) {
	switch s {
	case "cg-style-one-shot":
		return codec.CgStyleOneShot, nil
	case "one-shot-turbo":
		return codec.OneShotTurbo, nil
	default:
		return 0, fmt.Errorf("unknown decoder %q", s)
	}
}

func parseStrategy(s string) (pyramid.Strategy, error) {
	switch s {
	case "decimate":
		return pyramid.Decimate, nil
	case "high-quality":
		return pyramid.HighQuality, nil
	default:
		return 0, fmt.Errorf("unknown downsampler %q", s)
	}
}
