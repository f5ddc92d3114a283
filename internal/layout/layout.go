package layout

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"shelver/internal/services"
)

// Destination describes where a classified file lands in the archive tree.
type Destination struct {
	// Dir is the full partition directory: base/category/activity/year/month/day.
	Dir string
	// Filename is the final name within Dir (title + extension, unchanged).
	Filename string
}

// Path returns the complete destination path.
func (d Destination) Path() string {
	return filepath.Join(d.Dir, d.Filename)
}

// Build computes the partitioned destination for a file. referenceTime must
// be the file's last-modified timestamp captured when readiness succeeded, so
// files modified on one date archive under that date even if moved later.
// Build performs no I/O; the transfer engine creates directories lazily.
//
// Partition order is fixed: category folder, activity folder, four-digit
// year, full English month name, two-digit day.
func Build(base, categoryFolder, activityFolder string, referenceTime time.Time, filename string) (Destination, error) {
	if strings.TrimSpace(base) == "" {
		return Destination{}, services.Wrap(services.ErrConfiguration, "layout", "build", "archive base directory not set", nil)
	}
	for _, segment := range []string{categoryFolder, activityFolder} {
		if err := checkSegment(segment); err != nil {
			return Destination{}, err
		}
	}
	if err := checkFilename(filename); err != nil {
		return Destination{}, err
	}

	dir := filepath.Join(
		base,
		categoryFolder,
		activityFolder,
		fmt.Sprintf("%04d", referenceTime.Year()),
		referenceTime.Month().String(),
		fmt.Sprintf("%02d", referenceTime.Day()),
	)

	dest := Destination{Dir: dir, Filename: filename}
	if err := checkWithinBase(base, dest.Path()); err != nil {
		return Destination{}, err
	}
	return dest, nil
}

// checkSegment rejects partition components that could redirect the path.
func checkSegment(segment string) error {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return services.Wrap(services.ErrSecurity, "layout", "validate", "empty partition segment", nil)
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return services.Wrap(services.ErrSecurity, "layout", "validate",
			fmt.Sprintf("unsafe partition segment %q", segment), nil)
	}
	return nil
}

func checkFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return services.Wrap(services.ErrSecurity, "layout", "validate", "empty destination filename", nil)
	}
	if filepath.Base(filename) != filename || strings.ContainsAny(filename, `/\`) {
		return services.Wrap(services.ErrSecurity, "layout", "validate",
			fmt.Sprintf("destination filename %q must not contain path elements", filename), nil)
	}
	if filename == "." || filename == ".." {
		return services.Wrap(services.ErrSecurity, "layout", "validate",
			fmt.Sprintf("destination filename %q is a relative path element", filename), nil)
	}
	return nil
}

// checkWithinBase guards against any residual traversal after joining.
func checkWithinBase(base, path string) error {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return services.Wrap(services.ErrSecurity, "layout", "validate",
			fmt.Sprintf("destination %q escapes archive base", path), err)
	}
	return nil
}
