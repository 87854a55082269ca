//go:build unix

package pyramid

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// mmapRegion maps length bytes of fd starting at offset (caller-rounded to
// the page boundary) with the requested access.
func mmapRegion(fd uintptr, offset int64, length int, mode AccessMode) ([]byte, error) {
	var prot int
	switch mode {
	case ReadOnly:
		prot = syscall.PROT_READ
	case ReadWrite:
		prot = syscall.PROT_READ | syscall.PROT_WRITE
	case WriteOnly:
		prot = syscall.PROT_WRITE
	}
	return syscall.Mmap(int(fd), offset, length, prot, syscall.MAP_SHARED)
}

// munmapRegion releases a mapping created by mmapRegion.
func munmapRegion(data []byte) error {
	return syscall.Munmap(data)
}

// preallocate requests a contiguous extent of size bytes starting at the
// current end of file.
func preallocate(f *os.File, size int64) error {
	return unix.Fallocate(int(f.Fd()), 0, 0, size)
}

// disableReadahead tells the kernel this file will be accessed randomly
// (scanline/tile granularity writes, not sequential slurps), so read-ahead
// pages are not wasted.
func disableReadahead(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}

// adviseSequential hints that the mapped range will be scanned front-to-back
// once, used by the downsampler over a level's row-major region.
func adviseSequential(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Madvise(data, unix.MADV_SEQUENTIAL)
}

// adviseWillNotNeed tells the kernel the mapped range is done with, so its
// pages can be reclaimed without waiting for memory pressure.
func adviseWillNotNeed(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Madvise(data, unix.MADV_DONTNEED)
}
