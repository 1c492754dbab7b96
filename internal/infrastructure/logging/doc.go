// Package logging provides structured logging for AirWatch Core.
//
// It wraps log/slog with configuration-driven format and level selection,
// plus default service/version attributes on every record. Components take
// a *Logger and scope it with With("component", ...).
package logging
