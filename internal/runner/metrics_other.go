//go:build !linux

package runner

import "runtime"

// peakRSSBytes approximates peak memory from the Go runtime's reservation.
func peakRSSBytes() int64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int64(stats.Sys)
}
