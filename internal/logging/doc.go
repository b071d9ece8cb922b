// Package logging constructs the application's slog loggers and provides the
// shared attribute helpers and field names used across components.
package logging
