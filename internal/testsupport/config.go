package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Mapping files are written with the standard sample codes so classification
// works out of the box.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "staging")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CategoryMap = filepath.Join(base, "category_map.json")
	cfg.Paths.ActivityMap = filepath.Join(base, "activity_map.json")
	cfg.Journal.Path = filepath.Join(base, "journal.db")
	cfg.Transfer.StabilityIntervalSecs = 1
	cfg.Transfer.MinSizeMB = 0
	cfg.Logging.Format = "console"

	for _, dir := range []string{cfg.Paths.SourceDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	WriteMapping(t, cfg.Paths.CategoryMap, map[string]string{"KL": "KONTEN LOKAL", "KN": "KONTEN NASIONAL"})
	WriteMapping(t, cfg.Paths.ActivityMap, map[string]string{"KHI": "KEPRI HARI INI", "LPT": "LIPUTAN"})

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMinSizeMB overrides the readiness size threshold.
func WithMinSizeMB(mb int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transfer.MinSizeMB = mb
	}
}

// WithWorkers overrides the worker count.
func WithWorkers(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Count = count
	}
}

// WithJournalDisabled turns off outcome persistence.
func WithJournalDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Journal.Enabled = false
	}
}

// WriteMapping serializes code -> folder pairs as a JSON mapping file.
func WriteMapping(t testing.TB, path string, entries map[string]string) {
	t.Helper()
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		t.Fatalf("marshal mapping: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write mapping %s: %v", path, err)
	}
}
