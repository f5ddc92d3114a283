package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"shelver/internal/logging"
)

// Code identifies why a candidate passed or failed the gate.
type Code int

const (
	// CodeReady means the candidate is safe to transfer.
	CodeReady Code = iota
	// CodeTooSmall is a terminal skip: the file is below the size threshold.
	CodeTooSmall
	// CodeGrowing means the size changed between samples; re-observe later.
	CodeGrowing
	// CodeLocked means another writer holds the file; re-observe later.
	CodeLocked
	// CodeUnreadable means the file could not be opened or read; re-observe later.
	CodeUnreadable
	// CodeVanished means the source disappeared before evaluation finished.
	CodeVanished
	// CodeExpired means the file stayed not-ready past the observation window.
	CodeExpired
)

// Result is the outcome of one gate evaluation.
type Result struct {
	Code   Code
	Reason string
}

// Ready reports whether the candidate may proceed to transfer.
func (r Result) Ready() bool { return r.Code == CodeReady }

// Transient reports whether the candidate should be re-observed on a later
// pass rather than terminally skipped.
func (r Result) Transient() bool {
	return r.Code == CodeGrowing || r.Code == CodeLocked || r.Code == CodeUnreadable
}

// Prober answers whether the process can take exclusive hold of a file
// without disturbing it. Implementations are platform-specific.
type Prober interface {
	ExclusiveAccess(path string) (bool, error)
}

// Gate decides whether a candidate file is safe to move: minimum size,
// size stability across a sampling interval, exclusivity, and readability.
// Evaluate may be invoked repeatedly for the same candidate across passes.
type Gate struct {
	MinSize           int64
	StabilityInterval time.Duration
	MaxObservation    time.Duration

	probe  Prober
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewGate constructs a gate with the platform's default exclusivity probe.
func NewGate(minSize int64, stabilityInterval, maxObservation time.Duration, logger *slog.Logger) *Gate {
	return &Gate{
		MinSize:           minSize,
		StabilityInterval: stabilityInterval,
		MaxObservation:    maxObservation,
		probe:             defaultProber(),
		logger:            logging.NewComponentLogger(logger, "readiness"),
		sleep:             sleepWithContext,
	}
}

// WithProber overrides the exclusivity probe (used in tests).
func (g *Gate) WithProber(p Prober) *Gate {
	g.probe = p
	return g
}

// Evaluate runs the full readiness check against the candidate, refreshing
// its observed size and modification time from the second stability sample.
func (g *Gate) Evaluate(ctx context.Context, cand *Candidate) (Result, error) {
	logger := logging.WithContext(ctx, g.logger)

	info, err := os.Stat(cand.SourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Code: CodeVanished, Reason: "source no longer exists"}, nil
		}
		return g.transientOrExpired(cand, CodeUnreadable, fmt.Sprintf("stat failed: %v", err)), nil
	}

	if info.Size() < g.MinSize {
		return Result{
			Code:   CodeTooSmall,
			Reason: fmt.Sprintf("size %d below threshold %d", info.Size(), g.MinSize),
		}, nil
	}

	firstSample := info.Size()
	if err := g.sleep(ctx, g.StabilityInterval); err != nil {
		return Result{}, err
	}

	info, err = os.Stat(cand.SourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Code: CodeVanished, Reason: "source vanished during stability check"}, nil
		}
		return g.transientOrExpired(cand, CodeUnreadable, fmt.Sprintf("stat failed: %v", err)), nil
	}

	cand.Size = info.Size()
	cand.ModTime = info.ModTime()

	if info.Size() != firstSample {
		logger.Debug("file still growing",
			logging.Int64("first_sample", firstSample),
			logging.Int64("second_sample", info.Size()),
		)
		return g.transientOrExpired(cand, CodeGrowing,
			fmt.Sprintf("size changed from %d to %d during sampling", firstSample, info.Size())), nil
	}

	if ok, err := g.readable(cand.SourcePath); err != nil || !ok {
		reason := "file not readable"
		if err != nil {
			reason = fmt.Sprintf("file not readable: %v", err)
		}
		return g.transientOrExpired(cand, CodeUnreadable, reason), nil
	}

	exclusive, err := g.probe.ExclusiveAccess(cand.SourcePath)
	if err != nil {
		return g.transientOrExpired(cand, CodeLocked, fmt.Sprintf("exclusivity probe failed: %v", err)), nil
	}
	if !exclusive {
		return g.transientOrExpired(cand, CodeLocked, "another process holds the file"), nil
	}

	return Result{Code: CodeReady}, nil
}

// transientOrExpired downgrades a transient condition to a permanent one once
// the candidate has been under observation longer than the window allows.
func (g *Gate) transientOrExpired(cand *Candidate, code Code, reason string) Result {
	if g.MaxObservation > 0 && time.Since(cand.FirstSeen) > g.MaxObservation {
		return Result{
			Code:   CodeExpired,
			Reason: fmt.Sprintf("not ready after %s: %s", g.MaxObservation, reason),
		}
	}
	return Result{Code: code, Reason: reason}
}

// readable opens the file and reads the first kilobyte.
func (g *Gate) readable(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 1024)
	if _, err := f.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return true, nil
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
