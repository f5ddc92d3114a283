package transfer

import (
	"time"

	"shelver/internal/layout"
)

// Plan is the immutable work order for one transfer. It is built once per
// candidate that passes classification and readiness, and never mutated.
type Plan struct {
	SourcePath     string
	Destination    layout.Destination
	ExpectedSize   int64
	VerifyChecksum bool
}

// OutcomeKind enumerates the terminal results a candidate can reach.
type OutcomeKind string

const (
	OutcomeMoved            OutcomeKind = "moved"
	OutcomeWouldMove        OutcomeKind = "would_move"
	OutcomeSkippedInvalid   OutcomeKind = "skipped_invalid_name"
	OutcomeSkippedUnknown   OutcomeKind = "skipped_unknown_code"
	OutcomeSkippedTooSmall  OutcomeKind = "skipped_too_small"
	OutcomeSkippedNotReady  OutcomeKind = "skipped_not_ready"
	OutcomeErrored          OutcomeKind = "errored"
)

// Outcome is the terminal, immutable record for one candidate.
type Outcome struct {
	Kind       OutcomeKind
	SourcePath string
	DestPath   string
	Attempts   int
	Bytes      int64
	Elapsed    time.Duration
	Reason     string
	// CleanupFailed marks a partial success: the copy committed and verified
	// but the source file could not be removed.
	CleanupFailed bool
}

// Terminal reports whether the outcome ends processing for the candidate in
// this run. Not-ready skips are re-observed by a later invocation.
func (o Outcome) Terminal() bool {
	return o.Kind != OutcomeSkippedNotReady
}
