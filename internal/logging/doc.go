// Package logging assembles structured slog loggers used across lenscal.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so action code can tag log
// lines with the run ID, action name, and source image. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
