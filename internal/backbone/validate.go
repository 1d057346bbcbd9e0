package backbone

import (
	"fmt"
	"strings"
)

// Issue describes one referential-integrity problem found in the backbone.
type Issue struct {
	Kind   string
	Detail string
}

func (i Issue) String() string {
	return i.Kind + ": " + i.Detail
}

// Issue kinds reported by Validate.
const (
	IssueDuplicateID      = "duplicate_id"
	IssueMissingID        = "missing_id"
	IssueUnknownLocation  = "unknown_location"
	IssueUnknownCharacter = "unknown_character"
	IssueSceneIndex       = "scene_index"
	IssueLineKind         = "line_kind"
)

// Validate checks the backbone's structural invariants and returns every
// violation found. An empty result means the document is internally
// consistent.
func (b *ProjectBackbone) Validate() []Issue {
	var issues []Issue

	seen := map[string]string{}
	record := func(id, collection string) {
		if strings.TrimSpace(id) == "" {
			issues = append(issues, Issue{Kind: IssueMissingID, Detail: collection + " entry has no id"})
			return
		}
		if prior, ok := seen[id]; ok {
			issues = append(issues, Issue{
				Kind:   IssueDuplicateID,
				Detail: fmt.Sprintf("id %q used by both %s and %s", id, prior, collection),
			})
			return
		}
		seen[id] = collection
	}

	for _, c := range b.Characters {
		record(c.ID, "characters")
	}
	for _, l := range b.Locations {
		record(l.ID, "locations")
	}
	for _, it := range b.Items {
		record(it.ID, "items")
	}
	for _, s := range b.Scenes {
		record(s.ID, "scenes")
		for _, shot := range s.Shots {
			record(shot.ID, "shots")
		}
	}

	locations := map[string]struct{}{}
	for _, l := range b.Locations {
		locations[l.ID] = struct{}{}
	}
	characters := map[string]struct{}{}
	for _, c := range b.Characters {
		characters[c.ID] = struct{}{}
	}

	for i, s := range b.Scenes {
		if s.SceneIndex != i+1 {
			issues = append(issues, Issue{
				Kind:   IssueSceneIndex,
				Detail: fmt.Sprintf("scene %q has index %d, want %d", s.ID, s.SceneIndex, i+1),
			})
		}
		if s.LocationRefID != "" {
			if _, ok := locations[s.LocationRefID]; !ok {
				issues = append(issues, Issue{
					Kind:   IssueUnknownLocation,
					Detail: fmt.Sprintf("scene %q references missing location %q", s.ID, s.LocationRefID),
				})
			}
		}
		for _, line := range s.ScriptContent.Lines {
			if !ValidLineKind(line.Kind) {
				issues = append(issues, Issue{
					Kind:   IssueLineKind,
					Detail: fmt.Sprintf("scene %q has unknown line kind %q", s.ID, line.Kind),
				})
			}
		}
		for _, shot := range s.Shots {
			for _, id := range shot.Content.CharactersInShot {
				if id == "" {
					continue
				}
				if _, ok := characters[id]; !ok {
					issues = append(issues, Issue{
						Kind:   IssueUnknownCharacter,
						Detail: fmt.Sprintf("shot %q references missing character %q", shot.ID, id),
					})
				}
			}
		}
	}

	return issues
}

// ValidateStrict returns an error summarizing all integrity issues, or nil.
func (b *ProjectBackbone) ValidateStrict() error {
	issues := b.Validate()
	if len(issues) == 0 {
		return nil
	}
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return fmt.Errorf("backbone integrity: %s", strings.Join(parts, "; "))
}
