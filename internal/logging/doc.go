// Package logging assembles structured slog loggers and formatting helpers used
// across animedb.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so the sync driver can tag every log line with
// the run identifier, the title being resolved, and the catalog source. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the tool.
package logging
