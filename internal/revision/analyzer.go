package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/generation"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/services/llm"
)

// Analysis statuses.
const (
	StatusConfirmed = "CONFIRMED"
	StatusQuestion  = "QUESTION"
)

// Question is one clarification the user must answer before regeneration.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Analysis is the clarification resolver's verdict on an upstream delta.
type Analysis struct {
	Status    string     `json:"status"`
	Questions []Question `json:"questions,omitempty"`
}

// Analyzer classifies upstream entity deltas as unambiguous or ambiguous.
type Analyzer struct {
	client generation.Client
	logger *slog.Logger
}

// NewAnalyzer constructs a clarification analyzer.
func NewAnalyzer(client generation.Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logging.NewComponentLogger(logger, "revision"),
	}
}

// Analyze compares the baseline snapshot against the backbone's current
// upstream entities and decides whether regeneration can proceed silently.
//
// Deleting an entity that current scenes still reference is always ambiguous
// and produces questions without a generation call. Every other delta is
// classified by the generation backend; its output is untrusted and is
// schema-validated like any stage output.
func (a *Analyzer) Analyze(ctx context.Context, baseline *backbone.Snapshot, current *backbone.ProjectBackbone) (Analysis, error) {
	if baseline == nil {
		return Analysis{}, services.Wrap(services.ErrValidation, "clarify", "analyze changes", "no baseline snapshot", nil)
	}

	if questions := removedReferenceQuestions(baseline, current); len(questions) > 0 {
		return Analysis{Status: StatusQuestion, Questions: questions}, nil
	}

	payload, err := json.MarshalIndent(map[string]any{
		"previous": baseline,
		"current": backbone.Snapshot{
			Characters: current.Characters,
			Locations:  current.Locations,
			Items:      current.Items,
		},
	}, "", "  ")
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrValidation, "clarify", "build context", "", err)
	}

	raw, err := a.client.CompleteJSON(ctx, changeClassificationPrompt, string(payload))
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrGenerationBackend, "clarify", "classify changes", "", err)
	}

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrSchemaValidation, "clarify", "validate classification", "", err)
	}
	a.logger.Info("changes classified",
		logging.String("status", analysis.Status),
		logging.Int("questions", len(analysis.Questions)))
	return analysis, nil
}

func decodeAnalysis(raw string) (Analysis, error) {
	var analysis Analysis
	if err := llm.DecodeLLMJSON(raw, &analysis); err != nil {
		return Analysis{}, fmt.Errorf("decode classification: %w", err)
	}
	analysis.Status = strings.ToUpper(strings.TrimSpace(analysis.Status))
	switch analysis.Status {
	case StatusConfirmed:
		analysis.Questions = nil
		return analysis, nil
	case StatusQuestion:
	default:
		return Analysis{}, fmt.Errorf("classification: unknown status %q", analysis.Status)
	}
	if len(analysis.Questions) == 0 {
		return Analysis{}, fmt.Errorf("classification: question status without questions")
	}
	for i := range analysis.Questions {
		q := &analysis.Questions[i]
		if strings.TrimSpace(q.Text) == "" {
			return Analysis{}, fmt.Errorf("classification: questions[%d].text is empty", i)
		}
		if len(q.Options) < 2 {
			return Analysis{}, fmt.Errorf("classification: questions[%d] needs at least two options", i)
		}
		if strings.TrimSpace(q.ID) == "" {
			q.ID = newQuestionID()
		}
	}
	return analysis, nil
}

// removedReferenceQuestions builds one question per deleted entity that the
// current scenes still reference.
func removedReferenceQuestions(baseline *backbone.Snapshot, current *backbone.ProjectBackbone) []Question {
	var questions []Question

	referencedScenes := func(locationID string) int {
		count := 0
		for _, scene := range current.Scenes {
			if scene.LocationRefID == locationID {
				count++
			}
		}
		return count
	}
	for _, old := range baseline.Locations {
		if _, ok := current.LocationByID(old.ID); ok {
			continue
		}
		refs := referencedScenes(old.ID)
		if refs == 0 {
			continue
		}
		questions = append(questions, Question{
			ID:   newQuestionID(),
			Text: fmt.Sprintf("Location %q was removed but %d scene(s) still take place there. How should those scenes be handled?", old.Name, refs),
			Options: []string{
				"Move them to another existing location",
				"Invent a replacement location",
				"Cut the scenes and redistribute their story beats",
			},
		})
	}

	referencedShots := func(characterID string) int {
		count := 0
		for _, scene := range current.Scenes {
			for _, shot := range scene.Shots {
				for _, id := range shot.Content.CharactersInShot {
					if id == characterID {
						count++
					}
				}
			}
		}
		return count
	}
	for _, old := range baseline.Characters {
		if _, ok := current.CharacterByID(old.ID); ok {
			continue
		}
		refs := referencedShots(old.ID)
		if refs == 0 {
			continue
		}
		questions = append(questions, Question{
			ID:   newQuestionID(),
			Text: fmt.Sprintf("Character %q was removed but still appears in %d shot(s). How should their presence be handled?", old.Name, refs),
			Options: []string{
				"Reassign their lines and actions to another character",
				"Remove them from the story entirely",
				"Replace them with a new character serving the same role",
			},
		})
	}

	return questions
}

func newQuestionID() string {
	return "q_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
