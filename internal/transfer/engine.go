package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelver/internal/fileutil"
	"shelver/internal/layout"
	"shelver/internal/logging"
	"shelver/internal/services"
)

// partialSuffix marks in-flight temporary copies. A reader never observes a
// partially written final file because content lands under this name first.
const partialSuffix = ".partial"

// Options configures the transfer engine.
type Options struct {
	// MaxAttempts bounds retries for integrity and transient I/O failures.
	MaxAttempts int
	// BackoffBase is the first exponential backoff delay (doubled per attempt).
	BackoffBase time.Duration
	// RunToken makes temporary filenames unique across concurrent runs.
	RunToken string
	// DryRun short-circuits before the copying state with a synthetic outcome.
	DryRun bool
}

// Engine executes transfer plans: stage, copy to a temporary name, verify,
// commit with an atomic rename, then remove the source. Failures roll back
// the temporary file and are retried according to their class.
type Engine struct {
	opts   Options
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewEngine constructs a transfer engine.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	return &Engine{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "transfer"),
		sleep:  sleepWithContext,
	}
}

// Execute runs the plan to a terminal outcome. Every failure is converted to
// an Outcome at this boundary; Execute never panics or returns an error.
func (e *Engine) Execute(ctx context.Context, plan Plan) Outcome {
	start := time.Now()
	logger := logging.WithContext(ctx, e.logger)

	if e.opts.DryRun {
		logger.Info("dry-run: would move file",
			logging.String("destination", plan.Destination.Path()),
			logging.Int64("bytes", plan.ExpectedSize),
		)
		return Outcome{
			Kind:       OutcomeWouldMove,
			SourcePath: plan.SourcePath,
			DestPath:   plan.Destination.Path(),
			Bytes:      plan.ExpectedSize,
			Elapsed:    time.Since(start),
		}
	}

	var lastErr error
	attemptsMade := 0
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		attemptsMade = attempt
		bytes, cleanupFailed, err := e.attempt(ctx, logger, plan, attempt)
		if err == nil {
			outcome := Outcome{
				Kind:          OutcomeMoved,
				SourcePath:    plan.SourcePath,
				DestPath:      plan.Destination.Path(),
				Attempts:      attempt,
				Bytes:         bytes,
				Elapsed:       time.Since(start),
				CleanupFailed: cleanupFailed,
			}
			if cleanupFailed {
				logger.Warn("source removal failed after verified commit; duplicate remains",
					logging.String("destination", outcome.DestPath),
				)
			}
			return outcome
		}
		lastErr = err

		class := services.Classify(err)
		if class == services.RetryNever || attempt >= e.opts.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := services.BackoffDelay(e.opts.BackoffBase, attempt)
		if class == services.RetryFixed {
			delay = services.FixedRetryDelay
		}
		logger.Warn("transfer attempt failed; retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	logger.Error("transfer rolled back", logging.Error(lastErr))
	return Outcome{
		Kind:       OutcomeErrored,
		SourcePath: plan.SourcePath,
		DestPath:   plan.Destination.Path(),
		Attempts:   attemptsMade,
		Elapsed:    time.Since(start),
		Reason:     reasonString(lastErr),
	}
}

// attempt drives the state machine through one pass. It returns the bytes
// transferred and whether source removal failed after a successful commit.
func (e *Engine) attempt(ctx context.Context, logger *slog.Logger, plan Plan, attempt int) (int64, bool, error) {
	state := StateStaged
	step := func(ev Event) error {
		next, err := Transition(state, ev)
		if err != nil {
			return err
		}
		logger.Debug("transfer state change",
			logging.String("from", string(state)),
			logging.String("to", string(next)),
			logging.Int("attempt", attempt),
		)
		state = next
		return nil
	}

	finalPath := plan.Destination.Path()

	// Idempotent re-run: a previously committed, verified destination is
	// never copied again. Only the duplicate source needs cleanup.
	if same, err := e.alreadyCommitted(plan); err == nil && same {
		logger.Info("destination already committed; skipping copy",
			logging.String("destination", finalPath),
		)
		cleanupFailed := false
		if removeErr := os.Remove(plan.SourcePath); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			cleanupFailed = true
		}
		return plan.ExpectedSize, cleanupFailed, nil
	}

	// Staged: create partition directories and reap stale partials from a
	// prior crashed run so they are never mistaken for valid destinations.
	if err := os.MkdirAll(plan.Destination.Dir, 0o755); err != nil {
		return 0, false, wrapFS("stage", "create partition directories", err)
	}
	e.reapStalePartials(logger, plan.Destination)

	if err := step(EventStageReady); err != nil {
		return 0, false, err
	}

	// Copying: content goes to a per-transfer-unique temporary name.
	tempPath := e.tempPath(plan.Destination, attempt)
	bytes, err := fileutil.CopyVerified(plan.SourcePath, tempPath, plan.VerifyChecksum)
	if err != nil {
		_ = os.Remove(tempPath)
		if errors.Is(err, services.ErrIntegrity) {
			return 0, false, err
		}
		return 0, false, wrapFS("copy", "copy to temporary file", err)
	}
	if err := step(EventCopyComplete); err != nil {
		return 0, false, err
	}

	// Verifying: size and digest checks already ran inside CopyVerified.
	if err := step(EventVerifyPassed); err != nil {
		return 0, false, err
	}

	// Committing: atomic rename to the final name, then source removal.
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return 0, false, wrapFS("commit", "rename temporary to final", err)
	}
	if err := step(EventCommitted); err != nil {
		return 0, false, err
	}

	cleanupFailed := false
	if err := os.Remove(plan.SourcePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cleanupFailed = true
	}
	return bytes, cleanupFailed, nil
}

// alreadyCommitted reports whether the final destination exists with content
// matching the source.
func (e *Engine) alreadyCommitted(plan Plan) (bool, error) {
	finalPath := plan.Destination.Path()
	if _, err := os.Stat(finalPath); err != nil {
		return false, err
	}
	return fileutil.SameContent(plan.SourcePath, finalPath, plan.VerifyChecksum)
}

// tempPath derives the per-transfer-unique temporary filename from the final
// name, the run token, and the attempt number.
func (e *Engine) tempPath(dest layout.Destination, attempt int) string {
	return filepath.Join(dest.Dir, fmt.Sprintf(".%s.%s-%d%s", dest.Filename, e.opts.RunToken, attempt, partialSuffix))
}

// reapStalePartials removes leftover temporary copies of this destination
// from interrupted prior runs. Removal is best effort; a stale partial only
// wastes space and can never shadow the final file.
func (e *Engine) reapStalePartials(logger *slog.Logger, dest layout.Destination) {
	final := dest.Filename
	dir := dest.Dir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	prefix := "." + final + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, partialSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			logger.Info("removed stale partial file", logging.String("name", name))
		}
	}
}

func wrapFS(operation, message string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return services.Wrap(services.ErrPermission, "transfer", operation, message, err)
	}
	return services.Wrap(services.ErrTransient, "transfer", operation, message, err)
}

func reasonString(err error) string {
	if err == nil {
		return "unknown failure"
	}
	return err.Error()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
