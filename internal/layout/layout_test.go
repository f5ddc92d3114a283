package layout_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shelver/internal/layout"
	"shelver/internal/services"
)

func TestBuildPartitionsByModificationDate(t *testing.T) {
	ref := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	dest, err := layout.Build("/archive", "KONTEN LOKAL", "KEPRI HARI INI", ref, "Launch.mp4")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := filepath.Join("/archive", "KONTEN LOKAL", "KEPRI HARI INI", "2024", "January", "15", "Launch.mp4")
	if dest.Path() != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", dest.Path(), want)
	}
}

func TestBuildZeroPadsDay(t *testing.T) {
	ref := time.Date(2023, time.September, 5, 0, 0, 0, 0, time.UTC)
	dest, err := layout.Build("/archive", "A", "B", ref, "f.mkv")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if filepath.Base(dest.Dir) != "05" {
		t.Fatalf("expected zero-padded day, got %q", filepath.Base(dest.Dir))
	}
}

func TestBuildUsesEnglishMonthNames(t *testing.T) {
	ref := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	dest, err := layout.Build("/archive", "A", "B", ref, "f.mkv")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := filepath.Base(filepath.Dir(dest.Dir)); got != "March" {
		t.Fatalf("expected full month name, got %q", got)
	}
}

func TestBuildRejectsTraversal(t *testing.T) {
	ref := time.Now()
	cases := []struct {
		name     string
		category string
		activity string
		filename string
	}{
		{"dotdot category", "..", "B", "f.mkv"},
		{"separator in category", "a/b", "B", "f.mkv"},
		{"backslash in activity", "A", `b\c`, "f.mkv"},
		{"dotdot filename", "A", "B", ".."},
		{"nested filename", "A", "B", "x/f.mkv"},
		{"empty filename", "A", "B", ""},
		{"empty category", "", "B", "f.mkv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := layout.Build("/archive", tc.category, tc.activity, ref, tc.filename)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrSecurity) {
				t.Fatalf("expected security violation, got %v", err)
			}
		})
	}
}

func TestBuildRejectsEmptyBase(t *testing.T) {
	_, err := layout.Build("", "A", "B", time.Now(), "f.mkv")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
