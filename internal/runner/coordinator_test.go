package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shelver/internal/mapping"
	"shelver/internal/readiness"
	"shelver/internal/runner"
	"shelver/internal/transfer"
)

type captureSink struct {
	mu       sync.Mutex
	outcomes []transfer.Outcome
}

func (s *captureSink) Record(_ context.Context, outcome transfer.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *captureSink) byName() map[string]transfer.OutcomeKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make(map[string]transfer.OutcomeKind, len(s.outcomes))
	for _, o := range s.outcomes {
		kinds[filepath.Base(o.SourcePath)] = o.Kind
	}
	return kinds
}

type freeProber struct{}

func (freeProber) ExclusiveAccess(string) (bool, error) { return true, nil }

func testMappings(t *testing.T) (*mapping.Mapping, *mapping.Mapping) {
	t.Helper()
	categories, err := mapping.New("category", map[string]string{"KL": "KONTEN LOKAL"})
	if err != nil {
		t.Fatal(err)
	}
	activities, err := mapping.New("activity", map[string]string{"KHI": "KEPRI HARI INI"})
	if err != nil {
		t.Fatal(err)
	}
	return categories, activities
}

func newCoordinator(t *testing.T, archiveDir string, workers int, sink runner.OutcomeSink) *runner.Coordinator {
	t.Helper()
	categories, activities := testMappings(t)
	gate := readiness.NewGate(10, 0, time.Minute, nil).WithProber(freeProber{})
	engine := transfer.NewEngine(transfer.Options{MaxAttempts: 2, RunToken: "test"}, nil)
	return runner.New(
		runner.Options{ArchiveDir: archiveDir, Workers: workers, VerifyChecksum: true},
		categories, activities, gate, engine, sink, nil,
	)
}

func writeSource(t *testing.T, dir, name string, size int, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverDropsNonCandidates(t *testing.T) {
	source := t.TempDir()
	modTime := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.Local)
	writeSource(t, source, "KL_KHI_Launch.mp4", 64, modTime)
	writeSource(t, source, "KL_KHI_Half.mp4.tmp", 64, modTime)
	writeSource(t, source, ".hidden.mp4", 64, modTime)
	if err := os.MkdirAll(filepath.Join(source, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	coord := newCoordinator(t, t.TempDir(), 1, nil)
	candidates, err := coord.Discover(context.Background(), source)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if filepath.Base(candidates[0].SourcePath) != "KL_KHI_Launch.mp4" {
		t.Fatalf("unexpected candidate: %s", candidates[0].SourcePath)
	}
}

func TestRunMovesReadyCandidate(t *testing.T) {
	source := t.TempDir()
	archive := t.TempDir()
	modTime := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.Local)
	writeSource(t, source, "KL_KHI_Launch.mp4", 64, modTime)

	sink := &captureSink{}
	coord := newCoordinator(t, archive, 1, sink)
	candidates, err := coord.Discover(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}

	metrics := coord.Run(context.Background(), candidates)
	if metrics.Moved != 1 || metrics.Errored != 0 || metrics.Skipped != 0 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if metrics.BytesMoved != 64 {
		t.Fatalf("unexpected bytes moved: %d", metrics.BytesMoved)
	}

	dest := filepath.Join(archive, "KONTEN LOKAL", "KEPRI HARI INI", "2024", "January", "15", "Launch.mp4")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(source, "KL_KHI_Launch.mp4")); !os.IsNotExist(err) {
		t.Fatal("source should be removed")
	}
	if kinds := sink.byName(); kinds["KL_KHI_Launch.mp4"] != transfer.OutcomeMoved {
		t.Fatalf("sink missed the move: %v", kinds)
	}
}

func TestRunSkipReasons(t *testing.T) {
	source := t.TempDir()
	modTime := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.Local)
	writeSource(t, source, "noseparators.mp4", 64, modTime)
	writeSource(t, source, "XX_KHI_Clip.mp4", 64, modTime)
	writeSource(t, source, "KL_YY_Clip.mp4", 64, modTime)
	writeSource(t, source, "KL_KHI_Tiny.mp4", 4, modTime)

	sink := &captureSink{}
	coord := newCoordinator(t, t.TempDir(), 1, sink)
	candidates, err := coord.Discover(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}

	metrics := coord.Run(context.Background(), candidates)
	if metrics.Skipped != 4 || metrics.Moved != 0 || metrics.Errored != 0 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}

	kinds := sink.byName()
	want := map[string]transfer.OutcomeKind{
		"noseparators.mp4": transfer.OutcomeSkippedInvalid,
		"XX_KHI_Clip.mp4":  transfer.OutcomeSkippedUnknown,
		"KL_YY_Clip.mp4":   transfer.OutcomeSkippedUnknown,
		"KL_KHI_Tiny.mp4":  transfer.OutcomeSkippedTooSmall,
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Fatalf("%s: got %s, want %s", name, kinds[name], kind)
		}
	}

	// The unknown-code reason carries both codes for diagnosis.
	for _, o := range sink.outcomes {
		if filepath.Base(o.SourcePath) != "XX_KHI_Clip.mp4" {
			continue
		}
		if o.Reason == "" || !strings.Contains(o.Reason, "XX") || !strings.Contains(o.Reason, "KHI") {
			t.Fatalf("unknown-code reason should name both codes: %q", o.Reason)
		}
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	modTime := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.Local)
	names := []string{
		"KL_KHI_One.mp4", "KL_KHI_Two.mp4", "KL_KHI_Three.mp4", "KL_KHI_Four.mp4",
		"badname.mp4", "XX_KHI_Five.mp4", "KL_KHI_Tiny.mp4",
	}
	runBatch := func(workers int) (runner.Metrics, map[string]transfer.OutcomeKind) {
		source := t.TempDir()
		for _, name := range names {
			size := 64
			if name == "KL_KHI_Tiny.mp4" {
				size = 4
			}
			writeSource(t, source, name, size, modTime)
		}
		sink := &captureSink{}
		coord := newCoordinator(t, t.TempDir(), workers, sink)
		candidates, err := coord.Discover(context.Background(), source)
		if err != nil {
			t.Fatal(err)
		}
		return coord.Run(context.Background(), candidates), sink.byName()
	}

	seqMetrics, seqKinds := runBatch(1)
	parMetrics, parKinds := runBatch(4)

	if len(parKinds) != len(names) {
		t.Fatalf("every candidate needs exactly one outcome, got %d of %d", len(parKinds), len(names))
	}
	for name, kind := range seqKinds {
		if parKinds[name] != kind {
			t.Fatalf("%s: parallel %s != sequential %s", name, parKinds[name], kind)
		}
	}
	if parMetrics.Moved != seqMetrics.Moved || parMetrics.Skipped != seqMetrics.Skipped || parMetrics.Errored != seqMetrics.Errored {
		t.Fatalf("metrics diverge: sequential %+v parallel %+v", seqMetrics, parMetrics)
	}
}

func TestRunCancelledRecordsEveryCandidate(t *testing.T) {
	source := t.TempDir()
	modTime := time.Now()
	for _, name := range []string{"KL_KHI_A.mp4", "KL_KHI_B.mp4", "KL_KHI_C.mp4"} {
		writeSource(t, source, name, 64, modTime)
	}

	sink := &captureSink{}
	coord := newCoordinator(t, t.TempDir(), 2, sink)
	candidates, err := coord.Discover(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	metrics := coord.Run(ctx, candidates)
	if metrics.Discovered != 3 {
		t.Fatalf("unexpected discovered count: %d", metrics.Discovered)
	}
	if len(sink.byName()) != 3 {
		t.Fatalf("every candidate needs a record on cancellation, got %d", len(sink.byName()))
	}
	for _, o := range sink.outcomes {
		if o.Kind != transfer.OutcomeSkippedNotReady {
			t.Fatalf("cancelled candidates must be re-observable, got %s", o.Kind)
		}
	}
	for _, name := range []string{"KL_KHI_A.mp4", "KL_KHI_B.mp4", "KL_KHI_C.mp4"} {
		if _, err := os.Stat(filepath.Join(source, name)); err != nil {
			t.Fatalf("cancelled run must not move %s: %v", name, err)
		}
	}
}
