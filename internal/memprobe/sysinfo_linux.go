//go:build linux

package memprobe

import "syscall"

// TotalSystemRAM returns the total physical RAM in bytes on Linux.
func TotalSystemRAM() (uint64, error) {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		return 0, err
	}
	return info.Totalram * uint64(info.Unit), nil
}
