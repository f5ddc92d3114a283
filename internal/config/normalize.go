package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTransfer()
	c.normalizeWorkers()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SHELVER_SOURCE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SourceDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("SHELVER_ARCHIVE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ArchiveDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CategoryMap, err = expandPath(c.Paths.CategoryMap); err != nil {
		return fmt.Errorf("paths.category_map: %w", err)
	}
	if c.Paths.ActivityMap, err = expandPath(c.Paths.ActivityMap); err != nil {
		return fmt.Errorf("paths.activity_map: %w", err)
	}
	return nil
}

func (c *Config) normalizeTransfer() {
	if c.Transfer.MinSizeMB < 0 {
		c.Transfer.MinSizeMB = 0
	}
	if c.Transfer.MaxAttempts <= 0 {
		c.Transfer.MaxAttempts = defaultMaxAttempts
	}
	if c.Transfer.StabilityIntervalSecs <= 0 {
		c.Transfer.StabilityIntervalSecs = defaultStabilitySecs
	}
	if c.Transfer.MaxObservationSecs <= 0 {
		c.Transfer.MaxObservationSecs = defaultMaxObservationSecs
	}
	if c.Transfer.BackoffBaseMillis <= 0 {
		c.Transfer.BackoffBaseMillis = defaultBackoffBaseMillis
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
