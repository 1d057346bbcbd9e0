package stage

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
)

// Stage names, in dependency order.
const (
	Bible          = "bible"
	Cast           = "cast"
	Locations      = "locations"
	Screenplay     = "screenplay"
	Shots          = "shots"
	Cinematography = "cinematography"
	ArtDirection   = "artdirection"
	Continuity     = "continuity"
)

// Request carries the user-entered inputs every context builder may draw on.
type Request struct {
	Premise               string
	PacingStyle           string
	TargetDurationSeconds int
	Language              string

	// Answers holds resolved clarification answers, present only during
	// regeneration. Keyed by question id.
	Answers map[string]string
}

// Definition declares one pipeline stage.
type Definition struct {
	Name      string
	DependsOn []string

	// SystemPrompt is the fixed instruction block for the stage role.
	SystemPrompt string

	// BuildContext renders the user prompt from the current backbone and
	// request. It only reads fields produced by the stage's dependencies.
	BuildContext func(b *backbone.ProjectBackbone, req Request) (string, error)

	// Apply decodes, validates, and merges the raw model payload into b.
	Apply func(raw string, b *backbone.ProjectBackbone) error

	// Terminal marks a validator stage whose REJECTED result is advisory
	// rather than a pipeline failure.
	Terminal bool
}

// Sort orders definitions so every stage runs after all of its dependencies.
// Unknown dependencies and cycles are reported as errors.
func Sort(defs []Definition) ([]Definition, error) {
	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if _, ok := byName[def.Name]; ok {
			return nil, fmt.Errorf("stage registry: duplicate stage %q", def.Name)
		}
		byName[def.Name] = def
	}

	indegree := make(map[string]int, len(defs))
	dependents := make(map[string][]string, len(defs))
	for _, def := range defs {
		if _, ok := indegree[def.Name]; !ok {
			indegree[def.Name] = 0
		}
		for _, dep := range def.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage registry: stage %q depends on unknown stage %q", def.Name, dep)
			}
			indegree[def.Name]++
			dependents[dep] = append(dependents[dep], def.Name)
		}
	}

	ready := make([]string, 0, len(defs))
	for name, degree := range indegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]Definition, 0, len(defs))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])

		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, dependent := range next {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(ordered) != len(defs) {
		return nil, fmt.Errorf("stage registry: dependency cycle detected")
	}
	return ordered, nil
}

// contextJSON renders a context payload map as indented JSON for prompts.
func contextJSON(payload map[string]any) (string, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("build stage context: %w", err)
	}
	return string(encoded), nil
}

func requestContext(req Request) map[string]any {
	ctx := map[string]any{
		"premise":               req.Premise,
		"pacingStyle":           req.PacingStyle,
		"targetDurationSeconds": req.TargetDurationSeconds,
		"language":              req.Language,
	}
	if len(req.Answers) > 0 {
		ctx["clarificationAnswers"] = req.Answers
	}
	return ctx
}
