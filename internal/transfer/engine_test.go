package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelver/internal/layout"
)

func testPlan(t *testing.T, dir string, content []byte) Plan {
	t.Helper()
	src := filepath.Join(dir, "src", "KL_KHI_Launch.mp4")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	dest, err := layout.Build(filepath.Join(dir, "archive"), "KONTEN LOKAL", "KEPRI HARI INI",
		time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), "Launch.mp4")
	if err != nil {
		t.Fatal(err)
	}
	return Plan{
		SourcePath:     src,
		Destination:    dest,
		ExpectedSize:   int64(len(content)),
		VerifyChecksum: true,
	}
}

func newTestEngine(opts Options) *Engine {
	if opts.RunToken == "" {
		opts.RunToken = "testtoken"
	}
	engine := NewEngine(opts, nil)
	engine.sleep = func(context.Context, time.Duration) error { return nil }
	return engine
}

func TestExecuteMovesFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("media payload")
	plan := testPlan(t, dir, content)
	engine := newTestEngine(Options{MaxAttempts: 3})

	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeMoved {
		t.Fatalf("expected moved, got %+v", outcome)
	}
	if outcome.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", outcome.Attempts)
	}
	if outcome.Bytes != int64(len(content)) {
		t.Fatalf("unexpected bytes: %d", outcome.Bytes)
	}

	got, err := os.ReadFile(plan.Destination.Path())
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(got) != string(content) {
		t.Fatal("destination content mismatch")
	}
	if _, err := os.Stat(plan.SourcePath); !os.IsNotExist(err) {
		t.Fatal("source should be removed after commit")
	}
}

func TestExecuteDryRunMutatesNothing(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(t, dir, []byte("payload"))
	engine := newTestEngine(Options{MaxAttempts: 3, DryRun: true})

	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeWouldMove {
		t.Fatalf("expected would-move, got %+v", outcome)
	}
	if outcome.DestPath != plan.Destination.Path() {
		t.Fatalf("unexpected destination: %q", outcome.DestPath)
	}
	if _, err := os.Stat(plan.SourcePath); err != nil {
		t.Fatal("source must remain in dry-run")
	}
	if _, err := os.Stat(filepath.Join(dir, "archive")); !os.IsNotExist(err) {
		t.Fatal("dry-run must not create archive directories")
	}
}

func TestExecuteSkipsCopyWhenDestinationAlreadyCommitted(t *testing.T) {
	dir := t.TempDir()
	content := []byte("payload")
	plan := testPlan(t, dir, content)

	// Simulate a prior run that committed but failed to remove the source.
	if err := os.MkdirAll(plan.Destination.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(plan.Destination.Path(), content, 0o644); err != nil {
		t.Fatal(err)
	}
	destInfoBefore, err := os.Stat(plan.Destination.Path())
	if err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(Options{MaxAttempts: 3})
	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeMoved {
		t.Fatalf("expected moved, got %+v", outcome)
	}
	if _, err := os.Stat(plan.SourcePath); !os.IsNotExist(err) {
		t.Fatal("duplicate source should be removed")
	}
	destInfoAfter, err := os.Stat(plan.Destination.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !destInfoBefore.ModTime().Equal(destInfoAfter.ModTime()) {
		t.Fatal("previously committed destination must not be rewritten")
	}
}

func TestExecuteReapsStalePartials(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(t, dir, []byte("payload"))

	if err := os.MkdirAll(plan.Destination.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(plan.Destination.Dir, ".Launch.mp4.deadbeef-1.partial")
	if err := os.WriteFile(stale, []byte("half written"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(Options{MaxAttempts: 3})
	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeMoved {
		t.Fatalf("expected moved, got %+v", outcome)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale partial should be removed")
	}
	entries, err := os.ReadDir(plan.Destination.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "Launch.mp4" {
		t.Fatalf("unexpected destination directory contents: %v", entries)
	}
}

func TestExecuteErrorsWhenSourceMissing(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(t, dir, []byte("payload"))
	if err := os.Remove(plan.SourcePath); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(Options{MaxAttempts: 2})
	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeErrored {
		t.Fatalf("expected errored, got %+v", outcome)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("expected retries for transient failure, got %d attempts", outcome.Attempts)
	}
	if outcome.Reason == "" {
		t.Fatal("expected failure reason")
	}
}

func TestExecuteLeavesNoPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(t, dir, []byte("payload"))
	if err := os.Remove(plan.SourcePath); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(Options{MaxAttempts: 1})
	outcome := engine.Execute(context.Background(), plan)
	if outcome.Kind != OutcomeErrored {
		t.Fatalf("expected errored, got %+v", outcome)
	}
	entries, err := os.ReadDir(plan.Destination.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty destination dir, found %v", entries)
	}
}

func TestTransitionTable(t *testing.T) {
	legal := []struct {
		from State
		ev   Event
		to   State
	}{
		{StateStaged, EventStageReady, StateCopying},
		{StateCopying, EventCopyComplete, StateVerifying},
		{StateVerifying, EventVerifyPassed, StateCommitting},
		{StateCommitting, EventCommitted, StateDone},
		{StateCopying, EventFailureRetry, StateRetrying},
		{StateRetrying, EventRetryAttempt, StateStaged},
		{StateVerifying, EventFailureFinal, StateRolledBack},
	}
	for _, tc := range legal {
		got, err := Transition(tc.from, tc.ev)
		if err != nil {
			t.Fatalf("transition %s/%s failed: %v", tc.from, tc.ev, err)
		}
		if got != tc.to {
			t.Fatalf("transition %s/%s = %s, want %s", tc.from, tc.ev, got, tc.to)
		}
	}

	illegal := []struct {
		from State
		ev   Event
	}{
		{StateDone, EventStageReady},
		{StateStaged, EventCommitted},
		{StateRolledBack, EventRetryAttempt},
		{StateCommitting, EventCopyComplete},
	}
	for _, tc := range illegal {
		if _, err := Transition(tc.from, tc.ev); err == nil {
			t.Fatalf("expected illegal transition %s/%s", tc.from, tc.ev)
		}
	}
}

func TestOutcomeTerminal(t *testing.T) {
	if (Outcome{Kind: OutcomeSkippedNotReady}).Terminal() {
		t.Fatal("not-ready skip must be re-observable")
	}
	for _, kind := range []OutcomeKind{OutcomeMoved, OutcomeWouldMove, OutcomeSkippedInvalid, OutcomeSkippedUnknown, OutcomeSkippedTooSmall, OutcomeErrored} {
		if !(Outcome{Kind: kind}).Terminal() {
			t.Fatalf("%s should be terminal", kind)
		}
	}
}
