// Package logging provides structured logging for Pointwatch Core.
//
// It wraps log/slog with level parsing, JSON/text output selection, and
// default service/version attributes. Components derive scoped loggers via
// With("component", name).
package logging
