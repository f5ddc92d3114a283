//go:build windows

package readiness

import (
	"errors"

	"golang.org/x/sys/windows"
)

// shareModeProber asks the OS directly whether the file can be opened without
// sharing write access. Unlike the rename probe this never touches the file's
// name, so it is the preferred check on Windows.
type shareModeProber struct{}

func defaultProber() Prober {
	return shareModeProber{}
}

func (shareModeProber) ExclusiveAccess(path string) (bool, error) {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}

	// Share only reads: the open fails with a sharing violation while any
	// other handle has the file open for writing.
	handle, err := windows.CreateFile(
		pathp,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		if errors.Is(err, windows.ERROR_SHARING_VIOLATION) {
			return false, nil
		}
		return false, err
	}
	windows.CloseHandle(handle)
	return true, nil
}
