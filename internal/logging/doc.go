// Package logging assembles the structured slog loggers used across the
// orchestrator. It owns the console/JSON handlers, centralizes level plumbing,
// and exposes context-aware helpers so stage code automatically tags log lines
// with stage names and external run identifiers. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
