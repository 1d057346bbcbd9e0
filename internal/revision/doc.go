// Package revision keeps the scene/shot subtree consistent with hand-edited
// upstream entities. It owns the per-project change-propagation state machine:
//
//	IDLE → DETECTED → ANALYZING → REGENERATING → IDLE
//	                      ↓              ↑
//	               AWAITING_ANSWERS ─────┘
//
// An upstream edit after generation flips the project to DETECTED. When
// regeneration is triggered the analyzer classifies the delta: unambiguous
// edits regenerate immediately, ambiguous ones (for example deleting a
// location that scenes still reference) produce clarification questions that
// must all be answered first. Regeneration re-runs the screenplay-and-later
// stages on the current entities, swaps the scene subtree wholesale, and
// commits a new baseline snapshot; on failure the old scenes and baseline are
// left untouched and the project stays DETECTED.
//
// All transitions are single-flight per manager: a second trigger while
// analysis or regeneration is in flight is rejected, not queued, and upstream
// edits are rejected while a regeneration is running.
package revision
