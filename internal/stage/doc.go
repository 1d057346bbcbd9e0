// Package stage declares the generation pipeline as data: one Definition per
// stage carrying its name, dependencies, system prompt, context builder, and
// typed output schema with merge semantics.
//
// Adding a stage means adding a Definition and its prompt, not new branching
// logic; the orchestrator discovers execution order by topologically sorting
// the registry. In practice the dependency graph is a fixed linear chain:
//
//	bible → cast → locations → screenplay → shots → cinematography →
//	artdirection → continuity
//
// Each Apply decodes the raw model payload against the stage's expected
// shape, validates it, and merges into the supplied backbone. Apply must be
// all-or-nothing on the backbone it is given; the orchestrator passes a clone
// and swaps it in only when Apply succeeds.
package stage
