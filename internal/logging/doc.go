// Package logging builds the slog loggers used across keepsake. Two output
// formats are supported: a compact console format (timestamp LEVEL component:
// message key=value) and line-delimited JSON for machine consumption. Session
// logs are appended to a file in the configured log directory in addition to
// stdout.
package logging
