// Package preflight provides readiness checks for the generation backend and
// the filesystem paths storygen writes to.
//
// These checks run in two contexts:
//   - The CLI "storygen generate" path calls RunAll before starting a run,
//     so a missing API key or unwritable export directory fails fast instead
//     of after several stages of generation.
//   - The CLI "storygen status" command displays the individual results.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
