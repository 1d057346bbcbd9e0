package backbone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Meta holds the story bible header populated by the first pipeline stage.
// Immutable after generation except by explicit user edit.
type Meta struct {
	Title          string `json:"title"`
	Logline        string `json:"logline"`
	Genre          string `json:"genre"`
	Tone           string `json:"tone"`
	TargetAudience string `json:"targetAudience"`
	CoreMessage    string `json:"coreMessage"`
}

// StyleGuide holds the visual direction consumed read-only by later stages.
type StyleGuide struct {
	VisualStyle    string   `json:"visualStyle"`
	Palette        []string `json:"palette"`
	LightingMood   string   `json:"lightingMood"`
	CameraLanguage string   `json:"cameraLanguage"`
}

// Continuity statuses reported by the terminal validation stage.
const (
	ContinuityApproved = "APPROVED"
	ContinuityRejected = "REJECTED"
)

// ContinuityReport stores the advisory result of the continuity check stage.
// A rejected report never fails the pipeline; it flags the backbone for review.
type ContinuityReport struct {
	Status    string    `json:"status"`
	Issues    []string  `json:"issues,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// ProjectBackbone is the canonical document produced and mutated by the
// pipeline. The orchestrator and regeneration executor own scenes and the
// baseline; user operations own the upstream entity collections.
type ProjectBackbone struct {
	Meta       Meta        `json:"meta"`
	StyleGuide StyleGuide  `json:"styleGuide"`
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations"`
	Items      []Item      `json:"items"`
	Scenes     []Scene     `json:"scenes"`

	// Baseline is the upstream entity state the current scenes were
	// generated against. Present whenever scenes is non-empty; replaced
	// exactly once per successful generation or regeneration.
	Baseline *Snapshot `json:"baseline,omitempty"`

	Continuity *ContinuityReport `json:"continuity,omitempty"`
}

// New returns an empty backbone ready for stage-by-stage population.
func New() *ProjectBackbone {
	return &ProjectBackbone{
		Characters: []Character{},
		Locations:  []Location{},
		Items:      []Item{},
		Scenes:     []Scene{},
	}
}

// Clone returns a deep copy of the backbone. Stage merges operate on clones
// so a failed merge leaves the original untouched.
func (b *ProjectBackbone) Clone() (*ProjectBackbone, error) {
	encoded, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("clone backbone: marshal: %w", err)
	}
	clone := New()
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	if err := decoder.Decode(clone); err != nil {
		return nil, fmt.Errorf("clone backbone: unmarshal: %w", err)
	}
	return clone, nil
}

// CharacterByID returns the character with the given id, if present.
func (b *ProjectBackbone) CharacterByID(id string) (*Character, bool) {
	for i := range b.Characters {
		if b.Characters[i].ID == id {
			return &b.Characters[i], true
		}
	}
	return nil, false
}

// LocationByID returns the location with the given id, if present.
func (b *ProjectBackbone) LocationByID(id string) (*Location, bool) {
	for i := range b.Locations {
		if b.Locations[i].ID == id {
			return &b.Locations[i], true
		}
	}
	return nil, false
}

// ItemByID returns the item with the given id, if present.
func (b *ProjectBackbone) ItemByID(id string) (*Item, bool) {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return &b.Items[i], true
		}
	}
	return nil, false
}

// SceneByID returns the scene with the given id, if present.
func (b *ProjectBackbone) SceneByID(id string) (*Scene, bool) {
	for i := range b.Scenes {
		if b.Scenes[i].ID == id {
			return &b.Scenes[i], true
		}
	}
	return nil, false
}
