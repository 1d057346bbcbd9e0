// Package pipeline runs the generation stages against a project backbone.
//
// Execution is strictly sequential in registry dependency order: a stage
// never starts before all of its dependencies have merged their output. Each
// stage attempt builds its context from the current backbone, calls the
// generation client, and applies the result to a clone; the clone replaces
// the working backbone only when the whole stage output validates, so a
// failed stage never leaves a partial merge behind.
//
// Schema-validation and backend failures share one bounded retry budget per
// stage (initial attempt plus Config stage_retries). Exhausting it aborts the
// run with an error naming the stage. The terminal continuity stage is
// advisory: a REJECTED verdict is recorded on the backbone and logged, never
// returned as a failure.
package pipeline
