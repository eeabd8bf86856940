// Package logging constructs the slog loggers used across herald.
//
// New builds a logger from explicit options; NewFromConfig derives those
// options from application config and tees output into the log directory.
// Attr helpers keep call sites consistent and let the underlying handler
// change without touching them.
package logging
