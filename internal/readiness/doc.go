// Package readiness gates candidate files before transfer.
//
// A candidate passes when it meets the minimum size, its size is unchanged
// across two samples a fixed interval apart, it can be opened for reading,
// and no other process holds it for writing. Transient conditions (growing,
// locked, unreadable) requeue the candidate for a later pass until a maximum
// observation window expires, after which they become permanent errors.
//
// The exclusivity probe is platform-specific: a reversible rename on POSIX
// systems and a share-mode open on Windows. Either way the probe never leaves
// the file under a different name than before the check.
package readiness
