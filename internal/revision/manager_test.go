package revision_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/pipeline"
	"github.com/goboss33/StoryGenAI-sub001/internal/revision"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

// newManager wires a manager whose classifier replays the scripted
// responses and whose regeneration stages run against the stage backend.
func newManager(t *testing.T, classifier *testsupport.ScriptedClient, backend *testsupport.StageBackend) *revision.Manager {
	t.Helper()
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())
	analyzer := revision.NewAnalyzer(classifier, logging.NewNop())
	return revision.NewManager(orch, analyzer, logging.NewNop())
}

func detectedManager(t *testing.T, classifier *testsupport.ScriptedClient, backend *testsupport.StageBackend, b *backbone.ProjectBackbone) *revision.Manager {
	t.Helper()
	m := newManager(t, classifier, backend)
	if got := m.Refresh(b); got != revision.StateDetected {
		t.Fatalf("state after refresh = %s, want detected", got)
	}
	return m
}

func TestRefreshTracksBaseline(t *testing.T) {
	m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())
	b := testsupport.SeedBackbone(t)

	if got := m.Refresh(b); got != revision.StateIdle {
		t.Fatalf("clean backbone: state = %s, want idle", got)
	}

	b.Characters[0].Name = "Renamed"
	if got := m.Refresh(b); got != revision.StateDetected {
		t.Fatalf("edited backbone: state = %s, want detected", got)
	}

	b.Characters[0].Name = "Mara Voss"
	if got := m.Refresh(b); got != revision.StateIdle {
		t.Fatalf("reverted backbone: state = %s, want idle", got)
	}
}

func TestBeginRegenerationRequiresDetected(t *testing.T) {
	m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())
	b := testsupport.SeedBackbone(t)

	_, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestBeginRegenerationConfirmed(t *testing.T) {
	classifier := testsupport.NewScriptedClient()
	classifier.Respond(`{"status": "CONFIRMED"}`)
	backend := testsupport.NewStageBackend()

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Description = "Keeper with a pronounced limp"
	m := detectedManager(t, classifier, backend, b)

	outcome, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("BeginRegeneration: %v", err)
	}
	if outcome.State != revision.StateIdle {
		t.Fatalf("outcome state = %s, want idle", outcome.State)
	}
	if m.State() != revision.StateIdle {
		t.Fatalf("manager state = %s, want idle", m.State())
	}

	// The scene subtree was swapped and the baseline recommitted against
	// the edited entities.
	for _, s := range b.Scenes {
		if s.ID == "scn_arrival" || s.ID == "scn_signal" {
			t.Fatalf("scene %q survived regeneration", s.ID)
		}
		if len(s.Shots) == 0 {
			t.Fatalf("regenerated scene %q has no shots", s.ID)
		}
	}
	if b.DetectChanges() {
		t.Fatal("baseline must absorb the edit after regeneration")
	}
	if backend.CallCount() != 5 {
		t.Fatalf("stage calls = %d, want 5", backend.CallCount())
	}
	if classifier.CallCount() != 1 {
		t.Fatalf("classifier calls = %d, want 1", classifier.CallCount())
	}
}

func TestBeginRegenerationQuestionPath(t *testing.T) {
	classifier := testsupport.NewScriptedClient()
	classifier.Respond(`{"status": "QUESTION", "questions": [
		{"id": "q_scope", "text": "Apply the limp to existing scenes?", "options": ["Yes", "No"]},
		{"id": "q_voice", "text": "Keep the original voice profile?", "options": ["Keep", "Regenerate"]}
	]}`)
	backend := testsupport.NewStageBackend()

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Description = "Keeper with a pronounced limp"
	m := detectedManager(t, classifier, backend, b)

	outcome, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("BeginRegeneration: %v", err)
	}
	if outcome.State != revision.StateAwaitingAnswers {
		t.Fatalf("outcome state = %s, want awaiting_answers", outcome.State)
	}
	if len(outcome.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(outcome.Questions))
	}
	if backend.CallCount() != 0 {
		t.Fatal("no stage may run while answers are pending")
	}

	// Partial answers are rejected wholesale: no state change, no call.
	_, err = m.SubmitAnswers(context.Background(), b, map[string]string{"q_scope": "Yes"}, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrClarificationIncomplete) {
		t.Fatalf("error = %v, want ErrClarificationIncomplete", err)
	}
	if !strings.Contains(err.Error(), "q_voice") {
		t.Fatalf("error %v does not name the unanswered question", err)
	}
	if m.State() != revision.StateAwaitingAnswers {
		t.Fatalf("state = %s after rejected submission", m.State())
	}
	if backend.CallCount() != 0 {
		t.Fatal("rejected submission must not reach the backend")
	}

	// Blank answers count as missing.
	_, err = m.SubmitAnswers(context.Background(), b, map[string]string{"q_scope": "Yes", "q_voice": "  "}, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrClarificationIncomplete) {
		t.Fatalf("error = %v, want ErrClarificationIncomplete", err)
	}

	// Capture the screenplay context to check the resolved answers ride in.
	var screenplayPrompt string
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Screenplay {
			screenplayPrompt = userPrompt
		}
		return "", false, nil
	}

	outcome, err = m.SubmitAnswers(context.Background(), b,
		map[string]string{"q_scope": "Yes", "q_voice": "Keep"}, stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if outcome.State != revision.StateIdle {
		t.Fatalf("outcome state = %s, want idle", outcome.State)
	}
	if len(m.Questions()) != 0 {
		t.Fatalf("questions not cleared: %v", m.Questions())
	}
	if backend.CallCount() != 5 {
		t.Fatalf("stage calls = %d, want 5", backend.CallCount())
	}
	if !strings.Contains(screenplayPrompt, "Apply the limp to existing scenes?") ||
		!strings.Contains(screenplayPrompt, "Yes") {
		t.Fatalf("resolved answers missing from regeneration context:\n%s", screenplayPrompt)
	}
}

func TestSubmitAnswersWithoutPending(t *testing.T) {
	m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())
	b := testsupport.SeedBackbone(t)

	_, err := m.SubmitAnswers(context.Background(), b, map[string]string{"q": "a"}, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestRegenerationFailureLeavesBackboneUntouched(t *testing.T) {
	classifier := testsupport.NewScriptedClient()
	classifier.Respond(`{"status": "CONFIRMED"}`)
	backend := testsupport.NewStageBackend()
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Screenplay {
			return "not json", true, nil
		}
		return "", false, nil
	}

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Name = "Renamed"
	m := detectedManager(t, classifier, backend, b)

	_, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("error = %v, want ErrSchemaValidation", err)
	}
	if m.State() != revision.StateDetected {
		t.Fatalf("state = %s, want detected after failure", m.State())
	}

	// No partial merge: old scenes and old baseline survive.
	if len(b.Scenes) != 2 || b.Scenes[0].ID != "scn_arrival" {
		t.Fatalf("scenes mutated by failed regeneration: %+v", b.Scenes)
	}
	if !b.DetectChanges() {
		t.Fatal("baseline must still reflect the pre-edit snapshot")
	}

	// The edit is still pending, so a second trigger is allowed.
	classifier.Respond(`{"status": "CONFIRMED"}`)
	backend.Respond = nil
	outcome, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("retry BeginRegeneration: %v", err)
	}
	if outcome.State != revision.StateIdle {
		t.Fatalf("retry outcome = %s, want idle", outcome.State)
	}
}

func TestAnalyzerFailureReturnsToDetected(t *testing.T) {
	classifier := testsupport.NewScriptedClient()
	classifier.Fail(errors.New("connection reset"))

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Name = "Renamed"
	m := detectedManager(t, classifier, testsupport.NewStageBackend(), b)

	_, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrGenerationBackend) {
		t.Fatalf("error = %v, want ErrGenerationBackend", err)
	}
	if m.State() != revision.StateDetected {
		t.Fatalf("state = %s, want detected", m.State())
	}
}

func TestRefreshDoesNotDiscardPendingQuestions(t *testing.T) {
	classifier := testsupport.NewScriptedClient()
	classifier.Respond(`{"status": "QUESTION", "questions": [{"id": "q_1", "text": "t", "options": ["a", "b"]}]}`)

	b := testsupport.SeedBackbone(t)
	b.Characters[0].Name = "Renamed"
	m := detectedManager(t, classifier, testsupport.NewStageBackend(), b)

	if _, err := m.BeginRegeneration(context.Background(), b, stage.Request{Premise: "premise"}); err != nil {
		t.Fatalf("BeginRegeneration: %v", err)
	}
	if got := m.Refresh(b); got != revision.StateAwaitingAnswers {
		t.Fatalf("refresh while awaiting = %s", got)
	}
	if len(m.Questions()) != 1 {
		t.Fatal("pending questions discarded by refresh")
	}
}

func TestRestore(t *testing.T) {
	cases := []struct {
		name      string
		persisted revision.State
		want      revision.State
	}{
		{name: "empty defaults to idle", persisted: "", want: revision.StateIdle},
		{name: "idle", persisted: revision.StateIdle, want: revision.StateIdle},
		{name: "detected", persisted: revision.StateDetected, want: revision.StateDetected},
		{name: "awaiting answers", persisted: revision.StateAwaitingAnswers, want: revision.StateAwaitingAnswers},
		{name: "analyzing downgrades", persisted: revision.StateAnalyzing, want: revision.StateDetected},
		{name: "regenerating downgrades", persisted: revision.StateRegenerating, want: revision.StateDetected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())
			m.Restore(tc.persisted, nil)
			if got := m.State(); got != tc.want {
				t.Fatalf("restored state = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRestoreKeepsQuestions(t *testing.T) {
	m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())
	questions := []revision.Question{{ID: "q_1", Text: "t", Options: []string{"a", "b"}}}
	m.Restore(revision.StateAwaitingAnswers, questions)

	got := m.Questions()
	if len(got) != 1 || got[0].ID != "q_1" {
		t.Fatalf("restored questions = %v", got)
	}
}

func TestGuardEdit(t *testing.T) {
	m := newManager(t, testsupport.NewScriptedClient(), testsupport.NewStageBackend())

	m.Restore(revision.StateAwaitingAnswers, nil)
	if err := m.GuardEdit(); err != nil {
		t.Fatalf("edits while awaiting answers must be allowed: %v", err)
	}

	m.Restore(revision.StateDetected, nil)
	if err := m.GuardEdit(); err != nil {
		t.Fatalf("edits while detected must be allowed: %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from revision.State
		to   revision.State
		ok   bool
	}{
		{revision.StateIdle, revision.StateDetected, true},
		{revision.StateIdle, revision.StateRegenerating, false},
		{revision.StateDetected, revision.StateAnalyzing, true},
		{revision.StateAnalyzing, revision.StateAwaitingAnswers, true},
		{revision.StateAnalyzing, revision.StateRegenerating, true},
		{revision.StateAwaitingAnswers, revision.StateRegenerating, true},
		{revision.StateAwaitingAnswers, revision.StateIdle, false},
		{revision.StateRegenerating, revision.StateIdle, true},
		{revision.StateRegenerating, revision.StateDetected, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestInFlight(t *testing.T) {
	inFlight := map[revision.State]bool{
		revision.StateIdle:            false,
		revision.StateDetected:        false,
		revision.StateAnalyzing:       true,
		revision.StateAwaitingAnswers: false,
		revision.StateRegenerating:    true,
	}
	for state, want := range inFlight {
		if got := state.InFlight(); got != want {
			t.Fatalf("%s.InFlight() = %v, want %v", state, got, want)
		}
	}
}
