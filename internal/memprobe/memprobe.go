// Package memprobe detects total system RAM so the pyramid builder can
// decide whether to run in memory-constrained mode.
package memprobe

import "log"

// ConstrainedThresholdBytes is the RAM ceiling at or below which a device is
// treated as memory-constrained.
const ConstrainedThresholdBytes = 512 * 1024 * 1024

// IsConstrained reports whether this machine should run with
// memory_constrained behavior. A failed probe is treated as "not
// constrained" — absence of information is not evidence of a low-RAM
// device.
func IsConstrained() bool {
	constrained, _ := IsConstrainedVerbose(false)
	return constrained
}

// IsConstrainedVerbose is IsConstrained with optional progress logging of
// the detected RAM figure and the decision it drove. It also returns the
// probed total in bytes (0 when the probe fails).
func IsConstrainedVerbose(verbose bool) (constrained bool, total int64) {
	ram, err := TotalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("memprobe: cannot detect system RAM: %v; assuming not constrained", err)
		}
		return false, 0
	}
	total = int64(ram)
	if verbose {
		log.Printf("memprobe: system RAM: %.1f GB", float64(total)/(1024*1024*1024))
	}
	constrained = total <= ConstrainedThresholdBytes
	if verbose && constrained {
		log.Printf("memprobe: RAM at or below %d MB threshold; running memory-constrained", ConstrainedThresholdBytes/(1024*1024))
	}
	return constrained, total
}
