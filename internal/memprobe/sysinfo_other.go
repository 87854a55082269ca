//go:build !darwin && !linux

package memprobe

import "fmt"

// TotalSystemRAM is unsupported on this platform.
func TotalSystemRAM() (uint64, error) {
	return 0, fmt.Errorf("unsupported platform for RAM detection")
}
