// Package logging assembles structured slog loggers and formatting helpers
// used by the daemon and the command line.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standardized attribute keys (component, event_type, element_id, ...), and
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
