package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/services/llm"
)

// Typed output schemas, one per stage. Apply functions decode the raw model
// payload into these, validate the shape, and merge into the backbone.

type bibleOutput struct {
	Meta struct {
		Title          string `json:"title"`
		Logline        string `json:"logline"`
		Genre          string `json:"genre"`
		Tone           string `json:"tone"`
		TargetAudience string `json:"targetAudience"`
		CoreMessage    string `json:"coreMessage"`
	} `json:"meta"`
	StyleGuide struct {
		VisualStyle    string   `json:"visualStyle"`
		Palette        []string `json:"palette"`
		LightingMood   string   `json:"lightingMood"`
		CameraLanguage string   `json:"cameraLanguage"`
	} `json:"styleGuide"`
}

func applyBible(raw string, b *backbone.ProjectBackbone) error {
	var out bibleOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode bible output: %w", err)
	}
	if err := requireFields(map[string]string{
		"meta.title":             out.Meta.Title,
		"meta.logline":           out.Meta.Logline,
		"meta.genre":             out.Meta.Genre,
		"meta.tone":              out.Meta.Tone,
		"styleGuide.visualStyle": out.StyleGuide.VisualStyle,
	}); err != nil {
		return err
	}
	if len(out.StyleGuide.Palette) == 0 {
		return errors.New("bible output: styleGuide.palette is empty")
	}

	b.Meta = backbone.Meta{
		Title:          strings.TrimSpace(out.Meta.Title),
		Logline:        strings.TrimSpace(out.Meta.Logline),
		Genre:          strings.TrimSpace(out.Meta.Genre),
		Tone:           strings.TrimSpace(out.Meta.Tone),
		TargetAudience: strings.TrimSpace(out.Meta.TargetAudience),
		CoreMessage:    strings.TrimSpace(out.Meta.CoreMessage),
	}
	b.StyleGuide = backbone.StyleGuide{
		VisualStyle:    strings.TrimSpace(out.StyleGuide.VisualStyle),
		Palette:        out.StyleGuide.Palette,
		LightingMood:   strings.TrimSpace(out.StyleGuide.LightingMood),
		CameraLanguage: strings.TrimSpace(out.StyleGuide.CameraLanguage),
	}
	return nil
}

type castOutput struct {
	Characters []struct {
		Name         string `json:"name"`
		Role         string `json:"role"`
		Description  string `json:"description"`
		Appearance   string `json:"appearance"`
		Personality  string `json:"personality"`
		VoiceProfile string `json:"voiceProfile"`
	} `json:"characters"`
	Items []struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		Significance string `json:"significance"`
	} `json:"items"`
}

func applyCast(raw string, b *backbone.ProjectBackbone) error {
	var out castOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode cast output: %w", err)
	}
	if len(out.Characters) == 0 {
		return errors.New("cast output: characters is empty")
	}

	characters := make([]backbone.Character, 0, len(out.Characters))
	for i, c := range out.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("cast output: characters[%d].name is empty", i)
		}
		characters = append(characters, backbone.Character{
			ID:           backbone.NewCharacterID(),
			Name:         strings.TrimSpace(c.Name),
			Role:         strings.TrimSpace(c.Role),
			Description:  strings.TrimSpace(c.Description),
			Appearance:   strings.TrimSpace(c.Appearance),
			Personality:  strings.TrimSpace(c.Personality),
			VoiceProfile: strings.TrimSpace(c.VoiceProfile),
		})
	}
	items := make([]backbone.Item, 0, len(out.Items))
	for i, it := range out.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("cast output: items[%d].name is empty", i)
		}
		items = append(items, backbone.Item{
			ID:           backbone.NewItemID(),
			Name:         strings.TrimSpace(it.Name),
			Description:  strings.TrimSpace(it.Description),
			Significance: strings.TrimSpace(it.Significance),
		})
	}

	b.Characters = characters
	b.Items = items
	return nil
}

type locationsOutput struct {
	Locations []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Mood        string `json:"mood"`
		TimeOfDay   string `json:"timeOfDay"`
	} `json:"locations"`
}

func applyLocations(raw string, b *backbone.ProjectBackbone) error {
	var out locationsOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode locations output: %w", err)
	}
	if len(out.Locations) == 0 {
		return errors.New("locations output: locations is empty")
	}

	locations := make([]backbone.Location, 0, len(out.Locations))
	for i, l := range out.Locations {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("locations output: locations[%d].name is empty", i)
		}
		locations = append(locations, backbone.Location{
			ID:          backbone.NewLocationID(),
			Name:        strings.TrimSpace(l.Name),
			Description: strings.TrimSpace(l.Description),
			Mood:        strings.TrimSpace(l.Mood),
			TimeOfDay:   strings.TrimSpace(l.TimeOfDay),
		})
	}

	b.Locations = locations
	return nil
}

type screenplayOutput struct {
	Scenes []struct {
		Title                    string `json:"title"`
		LocationRefID            string `json:"locationRefId"`
		NarrativeGoal            string `json:"narrativeGoal"`
		EstimatedDurationSeconds int    `json:"estimatedDurationSeconds"`
		Lines                    []struct {
			Kind      string `json:"kind"`
			Character string `json:"character"`
			Text      string `json:"text"`
		} `json:"lines"`
	} `json:"scenes"`
}

func applyScreenplay(raw string, b *backbone.ProjectBackbone) error {
	var out screenplayOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode screenplay output: %w", err)
	}
	if len(out.Scenes) == 0 {
		return errors.New("screenplay output: scenes is empty")
	}

	known := map[string]struct{}{}
	for _, l := range b.Locations {
		known[l.ID] = struct{}{}
	}

	scenes := make([]backbone.Scene, 0, len(out.Scenes))
	for i, s := range out.Scenes {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("screenplay output: scenes[%d].title is empty", i)
		}
		ref := strings.TrimSpace(s.LocationRefID)
		if ref != "" {
			if _, ok := known[ref]; !ok {
				return fmt.Errorf("screenplay output: scenes[%d] references unknown location %q", i, ref)
			}
		}
		if len(s.Lines) == 0 {
			return fmt.Errorf("screenplay output: scenes[%d].lines is empty", i)
		}
		lines := make([]backbone.ScriptLine, 0, len(s.Lines))
		for j, line := range s.Lines {
			kind := backbone.ScriptLineKind(strings.ToLower(strings.TrimSpace(line.Kind)))
			if !backbone.ValidLineKind(kind) {
				return fmt.Errorf("screenplay output: scenes[%d].lines[%d] has unknown kind %q", i, j, line.Kind)
			}
			lines = append(lines, backbone.ScriptLine{
				Kind:      kind,
				Character: strings.TrimSpace(line.Character),
				Text:      line.Text,
			})
		}
		duration := s.EstimatedDurationSeconds
		if duration <= 0 {
			duration = 30
		}
		scenes = append(scenes, backbone.Scene{
			ID:                       backbone.NewSceneID(),
			Title:                    strings.TrimSpace(s.Title),
			LocationRefID:            ref,
			NarrativeGoal:            strings.TrimSpace(s.NarrativeGoal),
			EstimatedDurationSeconds: duration,
			ScriptContent:            backbone.ScriptContent{Lines: lines},
			Shots:                    []backbone.Shot{},
		})
	}

	// The scene subtree is swapped wholesale, never merged per field.
	b.ReplaceScenes(scenes)
	return nil
}

type shotsOutput struct {
	Scenes []struct {
		SceneID string `json:"sceneId"`
		Shots   []struct {
			ShotType         string   `json:"shotType"`
			CameraMovement   string   `json:"cameraMovement"`
			Angle            string   `json:"angle"`
			CharactersInShot []string `json:"charactersInShot"`
			Ambience         string   `json:"ambience"`
			DialogueRef      string   `json:"dialogueRef"`
		} `json:"shots"`
	} `json:"scenes"`
}

func applyShots(raw string, b *backbone.ProjectBackbone) error {
	var out shotsOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode shots output: %w", err)
	}
	if len(out.Scenes) == 0 {
		return errors.New("shots output: scenes is empty")
	}

	characters := map[string]struct{}{}
	for _, c := range b.Characters {
		characters[c.ID] = struct{}{}
	}

	covered := map[string][]backbone.Shot{}
	for i, s := range out.Scenes {
		sceneID := strings.TrimSpace(s.SceneID)
		if _, ok := b.SceneByID(sceneID); !ok {
			return fmt.Errorf("shots output: scenes[%d] references unknown scene %q", i, s.SceneID)
		}
		if len(s.Shots) == 0 {
			return fmt.Errorf("shots output: scene %q has no shots", sceneID)
		}
		shots := make([]backbone.Shot, 0, len(s.Shots))
		for j, shot := range s.Shots {
			if strings.TrimSpace(shot.ShotType) == "" {
				return fmt.Errorf("shots output: scene %q shots[%d].shotType is empty", sceneID, j)
			}
			inShot := make([]string, 0, len(shot.CharactersInShot))
			for _, id := range shot.CharactersInShot {
				id = strings.TrimSpace(id)
				if id == "" {
					continue
				}
				if _, ok := characters[id]; !ok {
					return fmt.Errorf("shots output: scene %q shots[%d] references unknown character %q", sceneID, j, id)
				}
				inShot = append(inShot, id)
			}
			shots = append(shots, backbone.Shot{
				ID: backbone.NewShotID(),
				Composition: backbone.ShotComposition{
					ShotType:       strings.TrimSpace(shot.ShotType),
					CameraMovement: strings.TrimSpace(shot.CameraMovement),
					Angle:          strings.TrimSpace(shot.Angle),
				},
				Content: backbone.ShotContent{
					CharactersInShot: inShot,
				},
				Audio: backbone.ShotAudio{
					Ambience:    strings.TrimSpace(shot.Ambience),
					DialogueRef: strings.TrimSpace(shot.DialogueRef),
				},
				Status: backbone.ShotPending,
			})
		}
		covered[sceneID] = shots
	}

	for i := range b.Scenes {
		shots, ok := covered[b.Scenes[i].ID]
		if !ok {
			return fmt.Errorf("shots output: scene %q not covered", b.Scenes[i].ID)
		}
		b.Scenes[i].Shots = shots
	}
	return nil
}

type cinematographyOutput struct {
	Shots []struct {
		ShotID         string `json:"shotId"`
		CameraMovement string `json:"cameraMovement"`
		Angle          string `json:"angle"`
		VideoPrompt    string `json:"videoPrompt"`
	} `json:"shots"`
}

func applyCinematography(raw string, b *backbone.ProjectBackbone) error {
	var out cinematographyOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode cinematography output: %w", err)
	}

	index := shotIndex(b)
	for i, shot := range out.Shots {
		target, ok := index[strings.TrimSpace(shot.ShotID)]
		if !ok {
			return fmt.Errorf("cinematography output: shots[%d] references unknown shot %q", i, shot.ShotID)
		}
		if movement := strings.TrimSpace(shot.CameraMovement); movement != "" {
			target.Composition.CameraMovement = movement
		}
		if angle := strings.TrimSpace(shot.Angle); angle != "" {
			target.Composition.Angle = angle
		}
		if prompt := strings.TrimSpace(shot.VideoPrompt); prompt != "" {
			target.Content.VideoPrompt = prompt
		}
	}
	return nil
}

type artDirectionOutput struct {
	Shots []struct {
		ShotID      string `json:"shotId"`
		ImagePrompt string `json:"imagePrompt"`
	} `json:"shots"`
}

func applyArtDirection(raw string, b *backbone.ProjectBackbone) error {
	var out artDirectionOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode artdirection output: %w", err)
	}
	if len(out.Shots) == 0 {
		return errors.New("artdirection output: shots is empty")
	}

	index := shotIndex(b)
	for i, shot := range out.Shots {
		target, ok := index[strings.TrimSpace(shot.ShotID)]
		if !ok {
			return fmt.Errorf("artdirection output: shots[%d] references unknown shot %q", i, shot.ShotID)
		}
		if strings.TrimSpace(shot.ImagePrompt) == "" {
			return fmt.Errorf("artdirection output: shots[%d].imagePrompt is empty", i)
		}
		target.Content.ImagePrompt = strings.TrimSpace(shot.ImagePrompt)
	}
	return nil
}

type continuityOutput struct {
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

func applyContinuity(raw string, b *backbone.ProjectBackbone) error {
	var out continuityOutput
	if err := llm.DecodeLLMJSON(raw, &out); err != nil {
		return fmt.Errorf("decode continuity output: %w", err)
	}
	status := strings.ToUpper(strings.TrimSpace(out.Status))
	switch status {
	case backbone.ContinuityApproved:
	case backbone.ContinuityRejected:
		if len(out.Issues) == 0 {
			return errors.New("continuity output: rejected without issues")
		}
	default:
		return fmt.Errorf("continuity output: unknown status %q", out.Status)
	}

	b.Continuity = &backbone.ContinuityReport{
		Status:    status,
		Issues:    out.Issues,
		CheckedAt: time.Now().UTC(),
	}
	return nil
}

func shotIndex(b *backbone.ProjectBackbone) map[string]*backbone.Shot {
	index := map[string]*backbone.Shot{}
	for i := range b.Scenes {
		for j := range b.Scenes[i].Shots {
			shot := &b.Scenes[i].Shots[j]
			index[shot.ID] = shot
		}
	}
	return index
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}
