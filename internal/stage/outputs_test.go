package stage_test

import (
	"strings"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

func applyFor(t *testing.T, name string) func(string, *backbone.ProjectBackbone) error {
	t.Helper()
	for _, def := range stage.Registry() {
		if def.Name == name {
			return def.Apply
		}
	}
	t.Fatalf("stage %q not registered", name)
	return nil
}

func TestApplyBible(t *testing.T) {
	apply := applyFor(t, stage.Bible)
	b := backbone.New()

	payload := `{
		"meta": {"title": "Signal", "logline": "A keeper hears tomorrow.", "genre": "mystery", "tone": "moody"},
		"styleGuide": {"visualStyle": "coastal realism", "palette": ["#0b1d2a", "#f2e9dc"], "lightingMood": "low key"}
	}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply bible: %v", err)
	}
	if b.Meta.Title != "Signal" {
		t.Fatalf("meta not merged: %+v", b.Meta)
	}
	if len(b.StyleGuide.Palette) != 2 {
		t.Fatalf("palette not merged: %+v", b.StyleGuide)
	}
}

func TestApplyBibleRejections(t *testing.T) {
	apply := applyFor(t, stage.Bible)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "missing title", payload: `{"meta": {"logline": "l", "genre": "g", "tone": "t"}, "styleGuide": {"visualStyle": "v", "palette": ["#000"]}}`},
		{name: "empty palette", payload: `{"meta": {"title": "T", "logline": "l", "genre": "g", "tone": "t"}, "styleGuide": {"visualStyle": "v", "palette": []}}`},
		{name: "not json", payload: `the model apologizes and refuses`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := backbone.New()
			if err := apply(tc.payload, b); err == nil {
				t.Fatal("expected rejection")
			}
			if b.Meta.Title != "" {
				t.Fatalf("rejected payload still merged: %+v", b.Meta)
			}
		})
	}
}

func TestApplyCast(t *testing.T) {
	apply := applyFor(t, stage.Cast)
	b := backbone.New()

	payload := `{
		"characters": [
			{"name": "Mara Voss", "role": "protagonist", "description": "Keeper"},
			{"name": "Elio Brandt", "role": "catalyst"}
		],
		"items": [{"name": "Marine Radio", "description": "Valve set"}]
	}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply cast: %v", err)
	}
	if len(b.Characters) != 2 || len(b.Items) != 1 {
		t.Fatalf("merge counts: %d characters, %d items", len(b.Characters), len(b.Items))
	}
	for _, c := range b.Characters {
		if c.ID == "" {
			t.Fatalf("character %q has no assigned id", c.Name)
		}
	}
	if b.Items[0].ID == "" {
		t.Fatal("item has no assigned id")
	}
}

func TestApplyCastRejections(t *testing.T) {
	apply := applyFor(t, stage.Cast)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "no characters", payload: `{"characters": [], "items": []}`},
		{name: "unnamed character", payload: `{"characters": [{"role": "protagonist"}]}`},
		{name: "unnamed item", payload: `{"characters": [{"name": "A"}], "items": [{"description": "d"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := apply(tc.payload, backbone.New()); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestApplyLocations(t *testing.T) {
	apply := applyFor(t, stage.Locations)
	b := backbone.New()

	payload := `{"locations": [{"name": "Lamp Room", "description": "Glass-walled", "mood": "exposed", "timeOfDay": "night"}]}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply locations: %v", err)
	}
	if len(b.Locations) != 1 || b.Locations[0].ID == "" {
		t.Fatalf("locations not merged: %+v", b.Locations)
	}

	if err := apply(`{"locations": []}`, b); err == nil {
		t.Fatal("empty locations accepted")
	}
}

func TestApplyScreenplay(t *testing.T) {
	apply := applyFor(t, stage.Screenplay)
	b := testsupport.SeedBackbone(t)

	payload := `{
		"scenes": [
			{"title": "New Opening", "locationRefId": "loc_shore", "narrativeGoal": "g",
			 "estimatedDurationSeconds": 40,
			 "lines": [{"kind": "SLUGLINE", "text": "EXT. SHORE - NIGHT"}, {"kind": "dialogue", "character": "Mara", "text": "Hello."}]},
			{"title": "New Middle",
			 "lines": [{"kind": "action", "text": "Waves."}]}
		]
	}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply screenplay: %v", err)
	}
	// The scene subtree is swapped wholesale.
	if len(b.Scenes) != 2 {
		t.Fatalf("scene count = %d, want 2", len(b.Scenes))
	}
	for i, s := range b.Scenes {
		if s.SceneIndex != i+1 {
			t.Fatalf("scene %d index = %d", i, s.SceneIndex)
		}
		if s.ID == "" {
			t.Fatalf("scene %d has no assigned id", i)
		}
		if len(s.Shots) != 0 {
			t.Fatalf("fresh scenes must start without shots, got %d", len(s.Shots))
		}
	}
	if b.Scenes[0].ScriptContent.Lines[0].Kind != backbone.LineSlugline {
		t.Fatalf("line kind not normalized: %q", b.Scenes[0].ScriptContent.Lines[0].Kind)
	}
	if b.Scenes[1].EstimatedDurationSeconds != 30 {
		t.Fatalf("missing duration must default to 30, got %d", b.Scenes[1].EstimatedDurationSeconds)
	}
}

func TestApplyScreenplayRejections(t *testing.T) {
	apply := applyFor(t, stage.Screenplay)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "no scenes", payload: `{"scenes": []}`},
		{name: "untitled scene", payload: `{"scenes": [{"lines": [{"kind": "action", "text": "x"}]}]}`},
		{name: "no lines", payload: `{"scenes": [{"title": "T", "lines": []}]}`},
		{name: "unknown location", payload: `{"scenes": [{"title": "T", "locationRefId": "loc_mars", "lines": [{"kind": "action", "text": "x"}]}]}`},
		{name: "unknown line kind", payload: `{"scenes": [{"title": "T", "lines": [{"kind": "montage", "text": "x"}]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := testsupport.SeedBackbone(t)
			if err := apply(tc.payload, b); err == nil {
				t.Fatal("expected rejection")
			}
			if len(b.Scenes) != 2 || b.Scenes[0].ID != "scn_arrival" {
				t.Fatal("rejected payload must leave existing scenes alone")
			}
		})
	}
}

func TestApplyShots(t *testing.T) {
	apply := applyFor(t, stage.Shots)
	b := testsupport.SeedBackbone(t)

	payload := `{
		"scenes": [
			{"sceneId": "scn_arrival", "shots": [
				{"shotType": "wide", "cameraMovement": "static", "angle": "high", "charactersInShot": ["chr_keeper", "chr_visitor"], "ambience": "surf"}
			]},
			{"sceneId": "scn_signal", "shots": [
				{"shotType": "close-up", "charactersInShot": ["chr_keeper"]},
				{"shotType": "insert"}
			]}
		]
	}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply shots: %v", err)
	}
	if len(b.Scenes[0].Shots) != 1 || len(b.Scenes[1].Shots) != 2 {
		t.Fatalf("shot counts: %d, %d", len(b.Scenes[0].Shots), len(b.Scenes[1].Shots))
	}
	for _, scene := range b.Scenes {
		for _, shot := range scene.Shots {
			if shot.ID == "" {
				t.Fatal("shot has no assigned id")
			}
			if shot.Status != backbone.ShotPending {
				t.Fatalf("shot status = %q, want pending", shot.Status)
			}
		}
	}
}

func TestApplyShotsRejections(t *testing.T) {
	apply := applyFor(t, stage.Shots)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "unknown scene", payload: `{"scenes": [{"sceneId": "scn_ghost", "shots": [{"shotType": "wide"}]}]}`},
		{name: "unknown character", payload: `{"scenes": [
			{"sceneId": "scn_arrival", "shots": [{"shotType": "wide", "charactersInShot": ["chr_ghost"]}]},
			{"sceneId": "scn_signal", "shots": [{"shotType": "wide"}]}
		]}`},
		{name: "scene without shots", payload: `{"scenes": [
			{"sceneId": "scn_arrival", "shots": []},
			{"sceneId": "scn_signal", "shots": [{"shotType": "wide"}]}
		]}`},
		{name: "uncovered scene", payload: `{"scenes": [{"sceneId": "scn_arrival", "shots": [{"shotType": "wide"}]}]}`},
		{name: "missing shot type", payload: `{"scenes": [
			{"sceneId": "scn_arrival", "shots": [{"angle": "high"}]},
			{"sceneId": "scn_signal", "shots": [{"shotType": "wide"}]}
		]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := testsupport.SeedBackbone(t)
			if err := apply(tc.payload, b); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestApplyCinematography(t *testing.T) {
	apply := applyFor(t, stage.Cinematography)
	b := testsupport.SeedBackbone(t)

	payload := `{"shots": [
		{"shotId": "sht_arrival_wide", "cameraMovement": "crane down", "videoPrompt": "Crane down through rain"},
		{"shotId": "sht_signal_close", "angle": "low"}
	]}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply cinematography: %v", err)
	}
	wide := b.Scenes[0].Shots[0]
	if wide.Composition.CameraMovement != "crane down" {
		t.Fatalf("camera movement = %q", wide.Composition.CameraMovement)
	}
	if wide.Content.VideoPrompt != "Crane down through rain" {
		t.Fatalf("video prompt = %q", wide.Content.VideoPrompt)
	}
	// An omitted field keeps its previous value rather than blanking it.
	if wide.Composition.Angle != "high" {
		t.Fatalf("angle overwritten: %q", wide.Composition.Angle)
	}
	if got := b.Scenes[1].Shots[0].Composition.Angle; got != "low" {
		t.Fatalf("second shot angle = %q", got)
	}
}

func TestApplyCinematographyUnknownShot(t *testing.T) {
	apply := applyFor(t, stage.Cinematography)
	b := testsupport.SeedBackbone(t)
	if err := apply(`{"shots": [{"shotId": "sht_ghost", "angle": "low"}]}`, b); err == nil {
		t.Fatal("expected rejection")
	}
}

func TestApplyArtDirection(t *testing.T) {
	apply := applyFor(t, stage.ArtDirection)
	b := testsupport.SeedBackbone(t)

	payload := `{"shots": [{"shotId": "sht_arrival_wide", "imagePrompt": "Storm-lit shore, oil on canvas"}]}`
	if err := apply(payload, b); err != nil {
		t.Fatalf("apply artdirection: %v", err)
	}
	if got := b.Scenes[0].Shots[0].Content.ImagePrompt; got != "Storm-lit shore, oil on canvas" {
		t.Fatalf("image prompt = %q", got)
	}
}

func TestApplyArtDirectionRejections(t *testing.T) {
	apply := applyFor(t, stage.ArtDirection)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "no shots", payload: `{"shots": []}`},
		{name: "unknown shot", payload: `{"shots": [{"shotId": "sht_ghost", "imagePrompt": "x"}]}`},
		{name: "empty prompt", payload: `{"shots": [{"shotId": "sht_arrival_wide", "imagePrompt": "  "}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := apply(tc.payload, testsupport.SeedBackbone(t)); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestApplyContinuity(t *testing.T) {
	apply := applyFor(t, stage.Continuity)

	b := testsupport.SeedBackbone(t)
	if err := apply(`{"status": "approved", "issues": []}`, b); err != nil {
		t.Fatalf("apply continuity: %v", err)
	}
	if b.Continuity == nil || b.Continuity.Status != backbone.ContinuityApproved {
		t.Fatalf("continuity = %+v", b.Continuity)
	}
	if b.Continuity.CheckedAt.IsZero() {
		t.Fatal("checkedAt not stamped")
	}

	b = testsupport.SeedBackbone(t)
	if err := apply(`{"status": "REJECTED", "issues": ["Mara's coat changes color between scenes"]}`, b); err != nil {
		t.Fatalf("apply rejected continuity: %v", err)
	}
	if b.Continuity.Status != backbone.ContinuityRejected || len(b.Continuity.Issues) != 1 {
		t.Fatalf("continuity = %+v", b.Continuity)
	}
}

func TestApplyContinuityRejections(t *testing.T) {
	apply := applyFor(t, stage.Continuity)
	cases := []struct {
		name    string
		payload string
	}{
		{name: "rejected without issues", payload: `{"status": "REJECTED", "issues": []}`},
		{name: "unknown status", payload: `{"status": "MAYBE"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := testsupport.SeedBackbone(t)
			if err := apply(tc.payload, b); err == nil {
				t.Fatal("expected rejection")
			}
			if b.Continuity != nil {
				t.Fatal("rejected payload must not set a report")
			}
		})
	}
}

func TestContextBuildersIncludeAnswers(t *testing.T) {
	for _, def := range stage.Registry() {
		if def.Name != stage.Screenplay {
			continue
		}
		prompt, err := def.BuildContext(testsupport.SeedBackbone(t), stage.Request{
			Premise: "premise",
			Answers: map[string]string{"q_1": "Move the scenes to the shore"},
		})
		if err != nil {
			t.Fatalf("BuildContext: %v", err)
		}
		if !strings.Contains(prompt, "clarificationAnswers") || !strings.Contains(prompt, "Move the scenes to the shore") {
			t.Fatalf("answers missing from screenplay context:\n%s", prompt)
		}
	}
}
