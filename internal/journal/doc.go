// Package journal persists transfer outcomes in SQLite.
//
// One row is written per terminal outcome and one per run summary, so a
// skipped or failed file can be diagnosed after the fact without re-running
// the batch. The journal also remembers when a file first went not-ready,
// letting the readiness observation window span invocations.
//
// The database is operational history, not an archive index; deleting it
// only resets diagnostics and observation windows.
package journal
