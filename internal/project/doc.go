// Package project persists production-bible projects in SQLite. A project
// row carries the wizard inputs, the full backbone document as JSON, the
// lifecycle status, and the change-propagation state so a restarted process
// picks up where it left off. A file lock next to the database enforces a
// single writer per data directory.
package project
