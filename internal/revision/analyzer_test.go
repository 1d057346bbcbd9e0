package revision_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/revision"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

func TestAnalyzeRequiresBaseline(t *testing.T) {
	client := testsupport.NewScriptedClient()
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	_, err := analyzer.Analyze(context.Background(), nil, b)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if client.CallCount() != 0 {
		t.Fatal("no backend call expected without a baseline")
	}
}

func TestAnalyzeRemovedLocationStillReferenced(t *testing.T) {
	client := testsupport.NewScriptedClient()
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	// Drop the shore; scn_arrival still takes place there.
	b.Locations = b.Locations[:1]

	analysis, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Status != revision.StatusQuestion {
		t.Fatalf("status = %q, want QUESTION", analysis.Status)
	}
	if len(analysis.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(analysis.Questions))
	}
	q := analysis.Questions[0]
	if q.ID == "" || len(q.Options) < 2 {
		t.Fatalf("malformed question: %+v", q)
	}
	if !strings.Contains(q.Text, "North Shore") {
		t.Fatalf("question does not name the removed location: %q", q.Text)
	}
	// The deterministic pre-check never consults the backend.
	if client.CallCount() != 0 {
		t.Fatalf("backend called %d times", client.CallCount())
	}
}

func TestAnalyzeRemovedCharacterStillInShots(t *testing.T) {
	client := testsupport.NewScriptedClient()
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	// Drop Elio; sht_arrival_wide still frames him.
	b.Characters = b.Characters[:1]

	analysis, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Status != revision.StatusQuestion {
		t.Fatalf("status = %q, want QUESTION", analysis.Status)
	}
	if !strings.Contains(analysis.Questions[0].Text, "Elio Brandt") {
		t.Fatalf("question does not name the removed character: %q", analysis.Questions[0].Text)
	}
	if client.CallCount() != 0 {
		t.Fatalf("backend called %d times", client.CallCount())
	}
}

func TestAnalyzeUnreferencedRemovalGoesToClassifier(t *testing.T) {
	client := testsupport.NewScriptedClient()
	client.Respond(`{"status": "CONFIRMED"}`)
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	// The radio is referenced by no scene or shot; removing it is a plain
	// delta for the classifier.
	b.Items = nil

	analysis, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Status != revision.StatusConfirmed {
		t.Fatalf("status = %q, want CONFIRMED", analysis.Status)
	}
	if client.CallCount() != 1 {
		t.Fatalf("backend calls = %d, want 1", client.CallCount())
	}

	calls := client.Calls()
	if !strings.Contains(calls[0].UserPrompt, `"previous"`) || !strings.Contains(calls[0].UserPrompt, `"current"`) {
		t.Fatalf("classification payload missing snapshots:\n%s", calls[0].UserPrompt)
	}
	if !strings.Contains(calls[0].UserPrompt, "Marine Radio") {
		t.Fatal("classification payload missing the removed item")
	}
}

func TestAnalyzeClassifierQuestion(t *testing.T) {
	client := testsupport.NewScriptedClient()
	client.Respond(`{"status": "question", "questions": [
		{"text": "Should Mara's new limp appear in existing action lines?", "options": ["Yes, rewrite them", "No, only future scenes"]}
	]}`)
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Description = "Lighthouse keeper with a pronounced limp"

	analysis, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Status != revision.StatusQuestion {
		t.Fatalf("status = %q, want QUESTION", analysis.Status)
	}
	// Missing ids are assigned during validation.
	if analysis.Questions[0].ID == "" {
		t.Fatal("question id not assigned")
	}
}

func TestAnalyzeClassifierRejections(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{name: "unknown status", payload: `{"status": "PERHAPS"}`},
		{name: "question without questions", payload: `{"status": "QUESTION", "questions": []}`},
		{name: "question without text", payload: `{"status": "QUESTION", "questions": [{"text": " ", "options": ["a", "b"]}]}`},
		{name: "single option", payload: `{"status": "QUESTION", "questions": [{"text": "t", "options": ["only"]}]}`},
		{name: "not json", payload: `no payload today`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testsupport.NewScriptedClient()
			client.Respond(tc.payload)
			analyzer := revision.NewAnalyzer(client, logging.NewNop())

			b := testsupport.SeedBackbone(t)
			b.Characters[0].Name = "Renamed"

			_, err := analyzer.Analyze(context.Background(), b.Baseline, b)
			if !errors.Is(err, services.ErrSchemaValidation) {
				t.Fatalf("error = %v, want ErrSchemaValidation", err)
			}
		})
	}
}

func TestAnalyzeBackendFailure(t *testing.T) {
	client := testsupport.NewScriptedClient()
	client.Fail(errors.New("connection reset"))
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Name = "Renamed"

	_, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if !errors.Is(err, services.ErrGenerationBackend) {
		t.Fatalf("error = %v, want ErrGenerationBackend", err)
	}
}

func TestAnalyzeConfirmedClearsQuestions(t *testing.T) {
	client := testsupport.NewScriptedClient()
	client.Respond(`{"status": "confirmed", "questions": [{"text": "stray", "options": ["a", "b"]}]}`)
	analyzer := revision.NewAnalyzer(client, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Name = "Renamed"

	analysis, err := analyzer.Analyze(context.Background(), b.Baseline, b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Status != revision.StatusConfirmed || len(analysis.Questions) != 0 {
		t.Fatalf("analysis = %+v", analysis)
	}
}
