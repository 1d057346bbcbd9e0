// Package backbone defines the canonical project document produced by the
// generation pipeline: story meta, style guide, the upstream entity
// collections (characters, locations, items), and the scene/shot subtree
// generated from them.
//
// The package owns the structural rules the rest of the system relies on:
//   - entity ids are unique and never reused;
//   - scene indexes are contiguous 1..N in array order after every mutation;
//   - scene and shot references point at existing entities or are empty;
//   - a baseline snapshot of the upstream entities exists whenever scenes
//     exist, and scenes are stale exactly when the live entities differ
//     structurally from that snapshot.
//
// Persistence is a single JSON document (Document) carrying the backbone plus
// wizard metadata; historical document shapes are upgraded by explicit
// migration functions in migrate.go.
package backbone
