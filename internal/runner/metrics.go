package runner

import (
	"time"

	"shelver/internal/transfer"
)

// Metrics accumulates per-run counters across all candidates. It is filled by
// the coordinator's collector and reported once at run end; it is never
// persisted beyond the journal's run summary.
type Metrics struct {
	Discovered      int
	Moved           int
	WouldMove       int
	Skipped         int
	Errored         int
	CleanupFailures int
	BytesMoved      int64
	Elapsed         time.Duration
	// PeakRSSBytes is informational and zero on platforms without a cheap
	// resident-set probe.
	PeakRSSBytes int64
}

func (m *Metrics) observe(outcome transfer.Outcome) {
	switch outcome.Kind {
	case transfer.OutcomeMoved:
		m.Moved++
		m.BytesMoved += outcome.Bytes
	case transfer.OutcomeWouldMove:
		m.WouldMove++
		m.BytesMoved += outcome.Bytes
	case transfer.OutcomeErrored:
		m.Errored++
	default:
		m.Skipped++
	}
	if outcome.CleanupFailed {
		m.CleanupFailures++
	}
}
