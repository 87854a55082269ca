package pyramid

import "testing"

func TestMapper_CreateLevelAndMapWhole(t *testing.T) {
	m := NewMapper(t.TempDir())
	defer m.Close()

	lvl, err := m.CreateLevel(0, 300, 200)
	if err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}
	size, err := lvl.FileSize()
	if err != nil {
		t.Fatalf("FileSize: %v", err)
	}
	if size != lvl.Geometry.MappedSize {
		t.Fatalf("file size = %d, want MappedSize %d", size, lvl.Geometry.MappedSize)
	}

	whole, err := m.MapWhole(lvl, ReadWrite)
	if err != nil {
		t.Fatalf("MapWhole: %v", err)
	}
	if int64(len(whole)) != lvl.Geometry.MappedSize {
		t.Fatalf("MapWhole len = %d, want %d", len(whole), lvl.Geometry.MappedSize)
	}
	whole[0] = 0xAB
	if whole[0] != 0xAB {
		t.Fatal("write to whole mapping did not stick")
	}

	// Mapping again while already mapped must return the same slice.
	whole2, err := m.MapWhole(lvl, ReadWrite)
	if err != nil {
		t.Fatalf("second MapWhole: %v", err)
	}
	if whole2[0] != 0xAB {
		t.Fatal("second MapWhole did not see the first mapping's write")
	}

	if err := m.UnmapWhole(lvl); err != nil {
		t.Fatalf("UnmapWhole: %v", err)
	}
}

func TestMapper_MapWindowAndTruncateScratch(t *testing.T) {
	m := NewMapper(t.TempDir())
	defer m.Close()

	lvl, err := m.CreateLevel(0, 300, 200)
	if err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}

	win, err := m.MapWindow(lvl, int64(lvl.Geometry.ScratchBytes), lvl.Geometry.PaddedBytesPerRow, ReadWrite)
	if err != nil {
		t.Fatalf("MapWindow: %v", err)
	}
	if len(win.Data) != lvl.Geometry.PaddedBytesPerRow {
		t.Fatalf("window data len = %d, want %d", len(win.Data), lvl.Geometry.PaddedBytesPerRow)
	}
	win.Data[0] = 0x42
	if err := win.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Release must be idempotent-safe to call again with raw already nil.
	if err := win.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	if err := m.TruncateScratch(lvl); err != nil {
		t.Fatalf("TruncateScratch: %v", err)
	}
	size, err := lvl.FileSize()
	if err != nil {
		t.Fatalf("FileSize after truncate: %v", err)
	}
	if size != lvl.Geometry.MappedSize-int64(lvl.Geometry.ScratchBytes) {
		t.Fatalf("post-truncate size = %d, want %d", size, lvl.Geometry.MappedSize-int64(lvl.Geometry.ScratchBytes))
	}
}

func TestMapper_UnalignedWindowOffset(t *testing.T) {
	m := NewMapper(t.TempDir())
	defer m.Close()

	lvl, err := m.CreateLevel(0, 300, 200)
	if err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}

	// An offset one byte past a page boundary still must expose exactly
	// byteLen logical bytes at the caller's intended offset.
	off := int64(pageSize + 1)
	win, err := m.MapWindow(lvl, off, 64, ReadWrite)
	if err != nil {
		t.Fatalf("MapWindow: %v", err)
	}
	defer win.Release()
	if len(win.Data) != 64 {
		t.Fatalf("window data len = %d, want 64", len(win.Data))
	}
	for i := range win.Data {
		win.Data[i] = byte(i)
	}
}
