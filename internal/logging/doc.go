// Package logging constructs the slog loggers used across deckhand.
//
// It maps config values to handler formats (text or json), fans output out to
// stdout/stderr and per-run log files, and exposes the standardized attribute
// keys (run_id, face, image, state) every component logs with so a single run
// can be traced end to end.
package logging
