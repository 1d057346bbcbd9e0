package backbone

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Snapshot is a deep copy of the upstream entity collections at the moment
// scenes were generated. It is the reference state for change detection.
type Snapshot struct {
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations"`
	Items      []Item      `json:"items"`
}

// CaptureSnapshot deep-copies the backbone's upstream entities.
func (b *ProjectBackbone) CaptureSnapshot() (*Snapshot, error) {
	snap := &Snapshot{}
	if err := deepCopy(b.Characters, &snap.Characters); err != nil {
		return nil, fmt.Errorf("capture snapshot: characters: %w", err)
	}
	if err := deepCopy(b.Locations, &snap.Locations); err != nil {
		return nil, fmt.Errorf("capture snapshot: locations: %w", err)
	}
	if err := deepCopy(b.Items, &snap.Items); err != nil {
		return nil, fmt.Errorf("capture snapshot: items: %w", err)
	}
	return snap, nil
}

// CommitBaseline replaces the baseline with a snapshot of the current
// upstream entities. Called exactly once per successful generation or
// regeneration.
func (b *ProjectBackbone) CommitBaseline() error {
	snap, err := b.CaptureSnapshot()
	if err != nil {
		return err
	}
	b.Baseline = snap
	return nil
}

// DetectChanges reports whether the backbone's live upstream entities differ
// structurally from the baseline snapshot. Comparison is by value, not by
// reference, and order-sensitive: reordering a collection counts as a change.
// A backbone with scenes but no baseline is treated as changed.
func (b *ProjectBackbone) DetectChanges() bool {
	if b.Baseline == nil {
		return len(b.Scenes) > 0
	}
	return b.Baseline.Changed(b.Characters, b.Locations, b.Items)
}

// Changed reports whether the given live collections differ structurally
// from the snapshot. Pure and side-effect free. Generated reference image
// URIs are excluded from the comparison: asset delivery writes them after
// the baseline is captured, and no scene content depends on them.
func (s *Snapshot) Changed(characters []Character, locations []Location, items []Item) bool {
	if s == nil {
		return true
	}
	if !entitiesEqual(s.Characters, characters, func(c Character) Character {
		c.ReferenceImage = ""
		return c
	}) {
		return true
	}
	if !entitiesEqual(s.Locations, locations, func(l Location) Location {
		l.ReferenceImage = ""
		return l
	}) {
		return true
	}
	if !entitiesEqual(s.Items, items, func(i Item) Item {
		i.ReferenceImage = ""
		return i
	}) {
		return true
	}
	return false
}

// entitiesEqual compares two entity slices by structural content after
// normalization, treating nil and empty as equal.
func entitiesEqual[E any](a, b []E, normalize func(E) E) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(normalize(a[i]), normalize(b[i])) {
			return false
		}
	}
	return true
}

func deepCopy(src, dst any) error {
	encoded, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dst)
}
