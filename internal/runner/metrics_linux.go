//go:build linux

package runner

import "golang.org/x/sys/unix"

// peakRSSBytes reads the process high-water resident set from the kernel.
// Linux reports Maxrss in kilobytes.
func peakRSSBytes() int64 {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	return usage.Maxrss * 1024
}
