// Package runner coordinates one batch pass over the staging directory.
//
// Discovery lists candidate files, the coordinator claims each candidate for
// exactly one worker slot, and every candidate reaches exactly one outcome:
// moved, skipped with a reason, or errored. A single candidate's failure never
// aborts the batch.
package runner
