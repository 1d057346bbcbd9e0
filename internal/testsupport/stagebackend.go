package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
)

// stagePromptContext mirrors the context fields the fake backend needs to
// echo generated ids back from.
type stagePromptContext struct {
	Locations  []backbone.Location  `json:"locations"`
	Characters []backbone.Character `json:"characters"`
	Scenes     []backbone.Scene     `json:"scenes"`
}

// StageBackend is a generation.Client that answers every registered stage
// prompt with a valid payload derived from the prompt context, so ids
// assigned mid-pipeline resolve in later stages. The Respond hook lets a
// test override individual stages to inject failures or bad payloads.
type StageBackend struct {
	// Respond, when set, is consulted first. Returning handled=true short
	// circuits the default payload for that call.
	Respond func(stageName, userPrompt string) (payload string, handled bool, err error)

	names map[string]string

	mu    sync.Mutex
	calls []string
}

// NewStageBackend builds a backend covering the full stage registry.
func NewStageBackend() *StageBackend {
	names := map[string]string{}
	for _, def := range stage.Registry() {
		names[def.SystemPrompt] = def.Name
	}
	return &StageBackend{names: names}
}

// CompleteJSON implements generation.Client.
func (b *StageBackend) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, ok := b.names[systemPrompt]
	if !ok {
		return "", errors.New("stage backend: unrecognized system prompt")
	}
	b.mu.Lock()
	b.calls = append(b.calls, name)
	b.mu.Unlock()

	if b.Respond != nil {
		if payload, handled, err := b.Respond(name, userPrompt); handled {
			return payload, err
		}
	}
	return b.defaultPayload(name, userPrompt)
}

// Calls returns the stage names invoked so far, in order.
func (b *StageBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsFor counts how many times the named stage was invoked.
func (b *StageBackend) CallsFor(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, c := range b.calls {
		if c == name {
			count++
		}
	}
	return count
}

// CallCount returns the total number of backend invocations.
func (b *StageBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *StageBackend) defaultPayload(name, userPrompt string) (string, error) {
	var pc stagePromptContext
	if err := json.Unmarshal([]byte(userPrompt), &pc); err != nil {
		return "", fmt.Errorf("stage backend: decode prompt context: %w", err)
	}

	switch name {
	case stage.Bible:
		return `{
			"meta": {"title": "The Lighthouse Signal", "logline": "A keeper hears tomorrow.", "genre": "mystery", "tone": "moody"},
			"styleGuide": {"visualStyle": "coastal realism", "palette": ["#0b1d2a"], "lightingMood": "low key", "cameraLanguage": "slow push-ins"}
		}`, nil
	case stage.Cast:
		return `{
			"characters": [
				{"name": "Mara Voss", "role": "protagonist", "description": "Keeper"},
				{"name": "Elio Brandt", "role": "catalyst", "description": "Radio operator"}
			],
			"items": [{"name": "Marine Radio", "description": "Valve set"}]
		}`, nil
	case stage.Locations:
		return `{"locations": [
			{"name": "Lamp Room", "description": "Top of the tower", "mood": "exposed", "timeOfDay": "night"},
			{"name": "North Shore", "description": "Black rock shelf", "mood": "hostile"}
		]}`, nil
	case stage.Screenplay:
		if len(pc.Locations) == 0 {
			return "", errors.New("stage backend: screenplay context carries no locations")
		}
		return encodePayload(map[string]any{"scenes": []any{
			map[string]any{
				"title":                    "Arrival",
				"locationRefId":            pc.Locations[0].ID,
				"narrativeGoal":            "Elio washes ashore",
				"estimatedDurationSeconds": 45,
				"lines": []any{
					map[string]any{"kind": "slugline", "text": "EXT. SHORE - NIGHT"},
					map[string]any{"kind": "action", "text": "Waves hammer the rocks."},
				},
			},
			map[string]any{
				"title": "The Signal",
				"lines": []any{
					map[string]any{"kind": "action", "text": "The radio crackles."},
				},
			},
		}})
	case stage.Shots:
		scenes := make([]any, 0, len(pc.Scenes))
		for _, s := range pc.Scenes {
			shot := map[string]any{"shotType": "wide", "cameraMovement": "static", "angle": "high"}
			if len(pc.Characters) > 0 {
				shot["charactersInShot"] = []string{pc.Characters[0].ID}
			}
			scenes = append(scenes, map[string]any{"sceneId": s.ID, "shots": []any{shot}})
		}
		return encodePayload(map[string]any{"scenes": scenes})
	case stage.Cinematography:
		return encodePayload(map[string]any{"shots": shotFieldPayloads(pc.Scenes, "videoPrompt", "Slow push-in through rain")})
	case stage.ArtDirection:
		return encodePayload(map[string]any{"shots": shotFieldPayloads(pc.Scenes, "imagePrompt", "Storm-lit shore, amber practicals")})
	case stage.Continuity:
		return `{"status": "APPROVED", "issues": []}`, nil
	default:
		return "", fmt.Errorf("stage backend: no payload for stage %q", name)
	}
}

func shotFieldPayloads(scenes []backbone.Scene, field, value string) []any {
	var shots []any
	for _, s := range scenes {
		for _, shot := range s.Shots {
			shots = append(shots, map[string]any{"shotId": shot.ID, field: value})
		}
	}
	return shots
}

func encodePayload(payload map[string]any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
