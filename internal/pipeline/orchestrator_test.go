package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/pipeline"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

type recordingSink struct {
	mu        sync.Mutex
	started   []string
	completed []string
	failed    []string
}

func (s *recordingSink) StageStarted(name string) {
	s.mu.Lock()
	s.started = append(s.started, name)
	s.mu.Unlock()
}

func (s *recordingSink) StageCompleted(name string) {
	s.mu.Lock()
	s.completed = append(s.completed, name)
	s.mu.Unlock()
}

func (s *recordingSink) StageFailed(name string, err error) {
	s.mu.Lock()
	s.failed = append(s.failed, name)
	s.mu.Unlock()
}

func TestRunFullPipeline(t *testing.T) {
	backend := testsupport.NewStageBackend()
	sink := &recordingSink{}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop(), pipeline.WithProgressSink(sink))

	result, err := orch.Run(context.Background(), stage.Request{
		Premise:               "A keeper decodes a signal that should not exist.",
		PacingStyle:           "balanced",
		TargetDurationSeconds: 120,
		Language:              "en",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Meta.Title == "" {
		t.Fatal("bible stage did not populate meta")
	}
	if len(result.Characters) != 2 || len(result.Locations) != 2 || len(result.Items) != 1 {
		t.Fatalf("entity counts: %d characters, %d locations, %d items",
			len(result.Characters), len(result.Locations), len(result.Items))
	}
	if len(result.Scenes) != 2 {
		t.Fatalf("scene count = %d, want 2", len(result.Scenes))
	}
	for _, scene := range result.Scenes {
		if len(scene.Shots) == 0 {
			t.Fatalf("scene %q has no shots", scene.ID)
		}
		for _, shot := range scene.Shots {
			if shot.Content.VideoPrompt == "" || shot.Content.ImagePrompt == "" {
				t.Fatalf("shot %q missing enrichment prompts: %+v", shot.ID, shot.Content)
			}
		}
	}
	if result.Baseline == nil {
		t.Fatal("baseline not committed")
	}
	if result.DetectChanges() {
		t.Fatal("fresh result must match its baseline")
	}
	if result.Continuity == nil || result.Continuity.Status != backbone.ContinuityApproved {
		t.Fatalf("continuity = %+v", result.Continuity)
	}
	if issues := result.Validate(); len(issues) != 0 {
		t.Fatalf("result fails integrity: %v", issues)
	}

	if backend.CallCount() != 8 {
		t.Fatalf("backend calls = %d, want 8", backend.CallCount())
	}
	if len(sink.started) != 8 || len(sink.completed) != 8 || len(sink.failed) != 0 {
		t.Fatalf("sink events: started=%d completed=%d failed=%d",
			len(sink.started), len(sink.completed), len(sink.failed))
	}
	if sink.started[0] != stage.Bible || sink.completed[7] != stage.Continuity {
		t.Fatalf("stage order: started=%v completed=%v", sink.started, sink.completed)
	}
}

func TestRunRequiresPremise(t *testing.T) {
	backend := testsupport.NewStageBackend()
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())

	_, err := orch.Run(context.Background(), stage.Request{Premise: "   "})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if backend.CallCount() != 0 {
		t.Fatalf("backend called %d times for an empty premise", backend.CallCount())
	}
}

func TestRunAbortsAfterRepeatedSchemaFailures(t *testing.T) {
	backend := testsupport.NewStageBackend()
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Cast {
			return "I cannot produce JSON for that.", true, nil
		}
		return "", false, nil
	}
	sink := &recordingSink{}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop(), pipeline.WithProgressSink(sink))

	result, err := orch.Run(context.Background(), stage.Request{Premise: "premise"})
	if result != nil {
		t.Fatal("aborted run must not return a backbone")
	}
	if !errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("error = %v, want ErrSchemaValidation", err)
	}
	if !strings.Contains(err.Error(), stage.Cast) {
		t.Fatalf("error %v does not name the failing stage", err)
	}
	// Initial attempt plus two retries.
	if got := backend.CallsFor(stage.Cast); got != 3 {
		t.Fatalf("cast attempts = %d, want 3", got)
	}
	// Nothing downstream of the failed stage ran.
	if got := backend.CallsFor(stage.Locations); got != 0 {
		t.Fatalf("locations ran %d times after the abort", got)
	}
	if len(sink.failed) != 1 || sink.failed[0] != stage.Cast {
		t.Fatalf("sink failures = %v", sink.failed)
	}
	if services.FailureStatus(err) != project.StatusFailed {
		t.Fatalf("schema failure must map to status failed, got %s", services.FailureStatus(err))
	}
}

func TestRunRecoversWithinRetryBudget(t *testing.T) {
	backend := testsupport.NewStageBackend()
	bad := 2
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Bible && bad > 0 {
			bad--
			return `{"meta": {}}`, true, nil
		}
		return "", false, nil
	}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())

	result, err := orch.Run(context.Background(), stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Meta.Title == "" {
		t.Fatal("bible stage did not recover")
	}
	if got := backend.CallsFor(stage.Bible); got != 3 {
		t.Fatalf("bible attempts = %d, want 3", got)
	}
}

func TestRunBackendFailureIsRetryable(t *testing.T) {
	backend := testsupport.NewStageBackend()
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Bible {
			return "", true, errors.New("502 bad gateway")
		}
		return "", false, nil
	}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())

	_, err := orch.Run(context.Background(), stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrGenerationBackend) {
		t.Fatalf("error = %v, want ErrGenerationBackend", err)
	}
	if services.FailureStatus(err) != project.StatusStale {
		t.Fatalf("backend failure must stay retryable, got %s", services.FailureStatus(err))
	}
}

func TestRunContinuityRejectionIsAdvisory(t *testing.T) {
	backend := testsupport.NewStageBackend()
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Continuity {
			return `{"status": "REJECTED", "issues": ["Coat color changes between scenes"]}`, true, nil
		}
		return "", false, nil
	}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())

	result, err := orch.Run(context.Background(), stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("a rejected continuity report must not fail the run: %v", err)
	}
	if result.Continuity == nil || result.Continuity.Status != backbone.ContinuityRejected {
		t.Fatalf("continuity = %+v", result.Continuity)
	}
	if result.Baseline == nil {
		t.Fatal("baseline must still be committed")
	}
}

func TestRunStagesLeavesInputUntouched(t *testing.T) {
	backend := testsupport.NewStageBackend()
	orch := pipeline.NewOrchestrator(backend, logging.NewNop())

	b := testsupport.SeedBackbone(t)
	originalSceneIDs := make([]string, len(b.Scenes))
	for i, s := range b.Scenes {
		originalSceneIDs[i] = s.ID
	}

	result, err := orch.RunStages(context.Background(), b, stage.RegenerationStages(), stage.Request{Premise: "premise"})
	if err != nil {
		t.Fatalf("RunStages: %v", err)
	}

	for i, s := range b.Scenes {
		if s.ID != originalSceneIDs[i] {
			t.Fatal("input backbone was mutated")
		}
	}
	if len(result.Scenes) == 0 {
		t.Fatal("regeneration produced no scenes")
	}
	for _, s := range result.Scenes {
		for _, old := range originalSceneIDs {
			if s.ID == old {
				t.Fatalf("regenerated scene reuses id %q", old)
			}
		}
	}
	// Upstream entities survive; only the scene subtree changed.
	if len(result.Characters) != len(b.Characters) {
		t.Fatalf("characters = %d, want %d", len(result.Characters), len(b.Characters))
	}
	if got := backend.CallCount(); got != 5 {
		t.Fatalf("backend calls = %d, want 5", got)
	}
}

func TestRunStagesUnknownStage(t *testing.T) {
	orch := pipeline.NewOrchestrator(testsupport.NewStageBackend(), logging.NewNop())
	_, err := orch.RunStages(context.Background(), testsupport.SeedBackbone(t), []string{"colorgrade"}, stage.Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := pipeline.NewOrchestrator(testsupport.NewStageBackend(), logging.NewNop())
	_, err := orch.Run(ctx, stage.Request{Premise: "premise"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestWithStageRetriesZero(t *testing.T) {
	backend := testsupport.NewStageBackend()
	backend.Respond = func(name, userPrompt string) (string, bool, error) {
		if name == stage.Bible {
			return "not json", true, nil
		}
		return "", false, nil
	}
	orch := pipeline.NewOrchestrator(backend, logging.NewNop(), pipeline.WithStageRetries(0))

	_, err := orch.Run(context.Background(), stage.Request{Premise: "premise"})
	if !errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("error = %v, want ErrSchemaValidation", err)
	}
	if got := backend.CallsFor(stage.Bible); got != 1 {
		t.Fatalf("bible attempts = %d, want 1", got)
	}
}
