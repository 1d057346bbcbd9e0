// Package logging builds the slog loggers used across storygen.
//
// Two output formats are supported: a human-oriented console format with a
// leading component prefix, and machine-readable JSON. Attr helpers and the
// standardized field-name constants keep log keys consistent between the
// pipeline, the revision manager, and the CLI. NewNop returns a logger that
// discards everything, used throughout tests.
package logging
