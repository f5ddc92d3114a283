//go:build !windows

package readiness

import (
	"fmt"
	"os"
	"time"
)

// renameProber checks exclusivity with a reversible rename: a file held open
// by a cooperating writer (or on a share that enforces locks) refuses the
// rename. The file is always restored to its original name, even on failure.
type renameProber struct{}

func defaultProber() Prober {
	return renameProber{}
}

func (renameProber) ExclusiveAccess(path string) (bool, error) {
	probeName := fmt.Sprintf("%s.probe-%d", path, os.Getpid())

	if err := os.Rename(path, probeName); err != nil {
		// Refused rename means the file is held elsewhere; nothing moved.
		return false, nil
	}

	// Restore immediately. A transient failure here must not strand the file
	// under the probe name.
	var restoreErr error
	for attempt := 0; attempt < 5; attempt++ {
		if restoreErr = os.Rename(probeName, path); restoreErr == nil {
			return true, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false, fmt.Errorf("restore after probe: %w", restoreErr)
}
