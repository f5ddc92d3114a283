// Package logging wires slog with the handlers and helpers shared by the CLI
// and the pipeline components.
//
// It offers a console handler that promotes the component attribute into the
// message prefix, a JSON handler for machine-readable logs, typed attribute
// constructors, and context helpers that stamp run IDs and source paths onto
// log lines automatically.
package logging
