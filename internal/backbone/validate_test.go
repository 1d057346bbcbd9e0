package backbone_test

import (
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

func issueKinds(issues []backbone.Issue) map[string]int {
	kinds := map[string]int{}
	for _, issue := range issues {
		kinds[issue.Kind]++
	}
	return kinds
}

func TestValidateCleanBackbone(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	if issues := b.Validate(); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if err := b.ValidateStrict(); err != nil {
		t.Fatalf("ValidateStrict: %v", err)
	}
}

func TestValidateDuplicateID(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Items = append(b.Items, backbone.Item{ID: "chr_keeper", Name: "Clone"})

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueDuplicateID] != 1 {
		t.Fatalf("expected one duplicate_id issue, got %v", kinds)
	}
}

func TestValidateMissingID(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Characters = append(b.Characters, backbone.Character{Name: "Ghost"})

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueMissingID] != 1 {
		t.Fatalf("expected one missing_id issue, got %v", kinds)
	}
}

func TestValidateUnknownLocation(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Scenes[0].LocationRefID = "loc_demolished"

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueUnknownLocation] != 1 {
		t.Fatalf("expected one unknown_location issue, got %v", kinds)
	}
}

func TestValidateUnknownCharacterInShot(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Scenes[0].Shots[0].Content.CharactersInShot = append(
		b.Scenes[0].Shots[0].Content.CharactersInShot, "chr_nobody")

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueUnknownCharacter] != 1 {
		t.Fatalf("expected one unknown_character issue, got %v", kinds)
	}
}

func TestValidateSceneIndexGap(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Scenes[1].SceneIndex = 7

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueSceneIndex] != 1 {
		t.Fatalf("expected one scene_index issue, got %v", kinds)
	}

	b.NormalizeSceneIndexes()
	if issues := b.Validate(); len(issues) != 0 {
		t.Fatalf("normalization must clear index issues, got %v", issues)
	}
}

func TestValidateUnknownLineKind(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Scenes[0].ScriptContent.Lines = append(b.Scenes[0].ScriptContent.Lines,
		backbone.ScriptLine{Kind: "stage_whisper", Text: "psst"})

	kinds := issueKinds(b.Validate())
	if kinds[backbone.IssueLineKind] != 1 {
		t.Fatalf("expected one line_kind issue, got %v", kinds)
	}
}

func TestValidateStrictAggregates(t *testing.T) {
	b := testsupport.SeedBackbone(t)
	b.Scenes[0].LocationRefID = "loc_demolished"
	b.Scenes[1].SceneIndex = 9

	err := b.ValidateStrict()
	if err == nil {
		t.Fatal("expected aggregated validation error")
	}
}

func TestValidLineKind(t *testing.T) {
	valid := []backbone.ScriptLineKind{
		backbone.LineSlugline,
		backbone.LineAction,
		backbone.LineDialogue,
		backbone.LineParenthetical,
		backbone.LineTransition,
	}
	for _, kind := range valid {
		if !backbone.ValidLineKind(kind) {
			t.Fatalf("kind %q should be valid", kind)
		}
	}
	if backbone.ValidLineKind("montage") {
		t.Fatal("unknown kind accepted")
	}
}
