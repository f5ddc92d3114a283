// Package transfer moves verified files into the archive tree.
//
// The engine is an explicit state machine (staged, copying, verifying,
// committing, done, with retrying and rolled-back failure edges). Content is
// copied to a per-transfer-unique temporary name, verified by size and
// optionally SHA-256, then committed with an atomic rename; only after a
// successful commit is the source removed. Integrity and transient I/O
// failures retry with exponential backoff, permission failures with a short
// fixed delay, and security violations never.
//
// Every failure is converted to a terminal Outcome at the Execute boundary so
// one candidate can never abort a batch.
package transfer
