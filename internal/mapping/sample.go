package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var sampleCategories = map[string]string{
	"KL": "KONTEN LOKAL",
	"KN": "KONTEN NASIONAL",
	"DOK": "DOKUMENTASI",
}

var sampleActivities = map[string]string{
	"KHI": "KEPRI HARI INI",
	"LPT": "LIPUTAN",
	"WWC": "WAWANCARA",
}

// WriteSamples writes starter category and activity mapping files. Existing
// files are left untouched so a re-run never clobbers curated mappings.
func WriteSamples(categoryPath, activityPath string) error {
	if err := writeSample(categoryPath, sampleCategories); err != nil {
		return err
	}
	return writeSample(activityPath, sampleActivities)
}

func writeSample(path string, entries map[string]string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat mapping %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sample mapping: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
