package testsupport

import (
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
)

// SeedBackbone builds a small fully-populated backbone with its baseline
// committed, the shape a project has right after a successful generation.
func SeedBackbone(t testing.TB) *backbone.ProjectBackbone {
	t.Helper()

	b := backbone.New()
	b.Meta.Title = "The Lighthouse Signal"
	b.Meta.Logline = "A keeper decodes a signal that should not exist."
	b.StyleGuide = backbone.StyleGuide{
		VisualStyle:    "moody coastal realism",
		Palette:        []string{"#0b1d2a", "#f2e9dc"},
		LightingMood:   "low key, practical sources",
		CameraLanguage: "slow push-ins",
	}
	b.Characters = []backbone.Character{
		{
			ID:          "chr_keeper",
			Name:        "Mara Voss",
			Role:        "protagonist",
			Description: "Lighthouse keeper in her fifties",
			Appearance:  "Weathered oilskin coat, grey braid",
			Personality: "Methodical, quietly stubborn",
		},
		{
			ID:          "chr_visitor",
			Name:        "Elio Brandt",
			Role:        "catalyst",
			Description: "Stranded radio operator",
			Appearance:  "Soaked uniform, broken glasses",
			Personality: "Jittery, evasive",
		},
	}
	b.Locations = []backbone.Location{
		{
			ID:          "loc_lamproom",
			Name:        "Lamp Room",
			Description: "Glass-walled top of the lighthouse",
			Mood:        "exposed, humming",
			TimeOfDay:   "night",
		},
		{
			ID:          "loc_shore",
			Name:        "North Shore",
			Description: "Black rock shelf below the tower",
			Mood:        "hostile",
		},
	}
	b.Items = []backbone.Item{
		{
			ID:           "itm_radio",
			Name:         "Marine Radio",
			Description:  "Pre-war valve set, still warm",
			Significance: "Source of the impossible signal",
		},
	}
	b.Scenes = []backbone.Scene{
		{
			ID:                       "scn_arrival",
			SceneIndex:               1,
			Title:                    "Arrival",
			LocationRefID:            "loc_shore",
			NarrativeGoal:            "Elio washes ashore; Mara takes him in",
			EstimatedDurationSeconds: 45,
			ScriptContent: backbone.ScriptContent{
				Lines: []backbone.ScriptLine{
					{Kind: backbone.LineSlugline, Text: "EXT. NORTH SHORE - NIGHT"},
					{Kind: backbone.LineAction, Text: "Waves hammer the rock shelf."},
					{Kind: backbone.LineDialogue, Character: "Mara Voss", Text: "You picked a bad night to drown."},
				},
			},
			Shots: []backbone.Shot{
				{
					ID: "sht_arrival_wide",
					Composition: backbone.ShotComposition{
						ShotType:       "wide",
						CameraMovement: "static",
						Angle:          "high",
					},
					Content: backbone.ShotContent{
						CharactersInShot: []string{"chr_keeper", "chr_visitor"},
						ImagePrompt:      "Storm-lit shore, two figures on black rock",
						VideoPrompt:      "Waves crash as a figure drags another ashore",
					},
					Audio:  backbone.ShotAudio{Ambience: "storm surf, wind"},
					Status: backbone.ShotPending,
				},
			},
		},
		{
			ID:                       "scn_signal",
			SceneIndex:               2,
			Title:                    "The Signal",
			LocationRefID:            "loc_lamproom",
			NarrativeGoal:            "The radio repeats a message dated tomorrow",
			EstimatedDurationSeconds: 60,
			ScriptContent: backbone.ScriptContent{
				Lines: []backbone.ScriptLine{
					{Kind: backbone.LineSlugline, Text: "INT. LAMP ROOM - NIGHT"},
					{Kind: backbone.LineAction, Text: "The valve radio crackles to life on its own."},
				},
			},
			Shots: []backbone.Shot{
				{
					ID: "sht_signal_close",
					Composition: backbone.ShotComposition{
						ShotType:       "close-up",
						CameraMovement: "slow push-in",
						Angle:          "eye",
					},
					Content: backbone.ShotContent{
						CharactersInShot: []string{"chr_keeper"},
						ImagePrompt:      "Close on a valve radio dial glowing amber",
						VideoPrompt:      "Dial needle trembles as static resolves into a voice",
					},
					Audio:  backbone.ShotAudio{Ambience: "valve hum, distorted voice"},
					Status: backbone.ShotPending,
				},
			},
		},
	}

	if err := b.CommitBaseline(); err != nil {
		t.Fatalf("commit baseline: %v", err)
	}
	return b
}
