//go:build !unix

package pyramid

import (
	"fmt"
	"os"
)

func mmapRegion(fd uintptr, offset int64, length int, mode AccessMode) ([]byte, error) {
	return nil, fmt.Errorf("pyramid: memory-mapped pyramids are unsupported on this platform")
}

func munmapRegion(data []byte) error {
	return fmt.Errorf("pyramid: memory-mapped pyramids are unsupported on this platform")
}

func preallocate(f *os.File, size int64) error {
	return f.Truncate(size)
}

func disableReadahead(f *os.File) error { return nil }

func adviseSequential(data []byte) error { return nil }

func adviseWillNotNeed(data []byte) error { return nil }
