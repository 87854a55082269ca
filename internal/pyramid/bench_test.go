package pyramid

import "testing"

func solidRegion(g Geometry, r, gr, b, a byte) []byte {
	region := make([]byte, g.ScratchBytes)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			setPixel(region, g, x, y, r, gr, b, a)
		}
	}
	return region
}

func BenchmarkDecimateRegion_1024(b *testing.B) {
	srcGeom := computeGeometry(1024, 1024)
	dstGeom := computeGeometry(512, 512)
	src := solidRegion(srcGeom, 10, 20, 30, 255)
	dst := make([]byte, dstGeom.ScratchBytes)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		decimateRegion(src, srcGeom, dst, dstGeom)
	}
}

func BenchmarkHighQualityDownsample_1024(b *testing.B) {
	srcGeom := computeGeometry(1024, 1024)
	dstGeom := computeGeometry(512, 512)
	src := solidRegion(srcGeom, 10, 20, 30, 255)
	dst := make([]byte, dstGeom.ScratchBytes)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		highQualityDownsample(src, srcGeom, dst, dstGeom)
	}
}

func BenchmarkDownsampleScanlineInto_1024(b *testing.B) {
	src := make([]byte, 1024*BytesPerPixel)
	dst := make([]byte, 512*BytesPerPixel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		downsampleScanlineInto(src, dst, 2, 512)
	}
}

func BenchmarkBuildWholeFile_1024(b *testing.B) {
	g := computeGeometry(1024, 1024)
	whole := make([]byte, g.MappedSize)
	fillGradient(whole[g.ScratchBytes:], g)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		lvl := &Level{Index: 0, Geometry: g}
		if err := BuildWholeFile(lvl, whole); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRetileRowBand_1024(b *testing.B) {
	width := 1024
	g := computeGeometry(width, 1)
	src := make([]byte, g.ScratchBytes)
	fillGradient(src, Geometry{Width: width, Height: TileSize, PaddedBytesPerRow: g.PaddedBytesPerRow})
	dst := make([]byte, g.ScratchBytes)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		retileRowBand(src, dst, g.Cols, g.PaddedBytesPerRow)
	}
}
