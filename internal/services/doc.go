// Package services defines shared utilities consumed by the pipeline
// components and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source paths, and worker slots for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent transfer outcomes and retry classes.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
