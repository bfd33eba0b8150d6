// Package logging assembles the structured slog loggers used across
// conveyor's binaries.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so request and task
// code automatically tags log lines with run, task, and correlation
// identifiers. A no-op logger is provided for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing guarantees.
package logging
