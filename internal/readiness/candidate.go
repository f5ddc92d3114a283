package readiness

import "time"

// Candidate represents one file under consideration for transfer. It is owned
// by exactly one worker at a time; only the readiness gate mutates the
// observed size and modification time during re-sampling.
type Candidate struct {
	// SourcePath is the absolute path of the staged file.
	SourcePath string
	// Size is the byte size as last observed.
	Size int64
	// ModTime is the last-modified timestamp as last observed. Once readiness
	// succeeds it becomes the archive partition reference time.
	ModTime time.Time
	// FirstSeen anchors the maximum observation window.
	FirstSeen time.Time
}
