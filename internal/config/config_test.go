package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/config"
)

func TestLoadDefaultsWhenConfigAbsent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.SourceDir != filepath.Join(tempHome, "staging") {
		t.Fatalf("unexpected source dir: %q", cfg.Paths.SourceDir)
	}
	if cfg.Paths.ArchiveDir != filepath.Join(tempHome, "archive") {
		t.Fatalf("unexpected archive dir: %q", cfg.Paths.ArchiveDir)
	}
	if cfg.Transfer.MinSizeMB != 5 {
		t.Fatalf("unexpected min size: %d", cfg.Transfer.MinSizeMB)
	}
	if !cfg.Transfer.VerifyChecksum {
		t.Fatal("expected checksum verification enabled by default")
	}
	if cfg.Transfer.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Transfer.MaxAttempts)
	}
	if cfg.Workers.Count != 1 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal enabled by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`source_dir = "~/incoming"`,
		`archive_dir = "~/library"`,
		"[transfer]",
		"min_size_mb = 10",
		"verify_checksum = false",
		"[workers]",
		"count = 4",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.SourceDir != filepath.Join(tempHome, "incoming") {
		t.Fatalf("tilde not expanded: %q", cfg.Paths.SourceDir)
	}
	if cfg.Transfer.MinSizeMB != 10 {
		t.Fatalf("unexpected min size: %d", cfg.Transfer.MinSizeMB)
	}
	if cfg.Transfer.VerifyChecksum {
		t.Fatal("expected checksum verification disabled")
	}
	if cfg.Workers.Count != 4 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	// Unset sections keep defaults.
	if cfg.Transfer.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Transfer.MaxAttempts)
	}
}

func TestLoadHonoursEnvOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SHELVER_SOURCE_DIR", filepath.Join(tempHome, "env-src"))
	t.Setenv("SHELVER_ARCHIVE_DIR", filepath.Join(tempHome, "env-dst"))

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.SourceDir != filepath.Join(tempHome, "env-src") {
		t.Fatalf("env source override ignored: %q", cfg.Paths.SourceDir)
	}
	if cfg.Paths.ArchiveDir != filepath.Join(tempHome, "env-dst") {
		t.Fatalf("env archive override ignored: %q", cfg.Paths.ArchiveDir)
	}
}

func TestValidateRejectsEqualSourceAndArchive(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SourceDir = "/data/files"
	cfg.Paths.ArchiveDir = "/data/files"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for identical source and archive")
	}
}

func TestValidateRejectsBadObservationWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Transfer.StabilityIntervalSecs = 30
	cfg.Transfer.MaxObservationSecs = 30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for observation window")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := config.WriteSample(path); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[transfer]") {
		t.Fatal("sample config missing transfer section")
	}

	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
