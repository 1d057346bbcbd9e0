package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/generation"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/pipeline"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/revision"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
)

// ProjectService wraps the store and the generation pipeline behind the
// operations the HTTP server and the CLI share.
type ProjectService struct {
	store     *project.Store
	cfg       *config.Config
	logger    *slog.Logger
	sink      pipeline.ProgressSink
	newClient func(ctx context.Context, settings config.GenerationSettings) (generation.Client, error)
}

// ServiceOption configures optional ProjectService behavior.
type ServiceOption func(*ProjectService)

// WithProgressSink forwards stage lifecycle events, typically to the
// websocket hub.
func WithProgressSink(sink pipeline.ProgressSink) ServiceOption {
	return func(s *ProjectService) {
		s.sink = sink
	}
}

// WithClientFactory overrides how generation clients are built. Tests use
// this to install scripted clients.
func WithClientFactory(factory func(ctx context.Context, settings config.GenerationSettings) (generation.Client, error)) ServiceOption {
	return func(s *ProjectService) {
		s.newClient = factory
	}
}

// NewProjectService constructs the shared project service.
func NewProjectService(store *project.Store, cfg *config.Config, logger *slog.Logger, opts ...ServiceOption) *ProjectService {
	s := &ProjectService{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "project-service"),
		newClient: generation.NewClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns project summaries, optionally filtered by status.
func (s *ProjectService) List(ctx context.Context, statuses ...project.Status) ([]ProjectSummary, error) {
	projects, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, summarize(p))
	}
	return summaries, nil
}

// Describe returns one project with entity counts and pending questions.
// Missing projects return nil, nil.
func (s *ProjectService) Describe(ctx context.Context, id int64, includeDocument bool) (*ProjectDetail, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	detail := &ProjectDetail{ProjectSummary: summarize(p)}
	if p.DocumentJSON != "" {
		doc, err := backbone.DecodeDocument(strings.NewReader(p.DocumentJSON))
		if err != nil {
			return nil, services.Wrap(services.ErrImportFormat, "", "describe project", "", err)
		}
		b := doc.Backbone
		detail.Characters = len(b.Characters)
		detail.Locations = len(b.Locations)
		detail.Items = len(b.Items)
		detail.Scenes = len(b.Scenes)
		for _, scene := range b.Scenes {
			detail.Shots += len(scene.Shots)
		}
		if includeDocument {
			detail.Document = json.RawMessage(p.DocumentJSON)
		}
	}
	if p.QuestionsJSON != "" {
		questions, err := decodeQuestions(p.QuestionsJSON)
		if err != nil {
			return nil, err
		}
		detail.Questions = questionViews(questions)
	}
	return detail, nil
}

// Create inserts a new draft project seeded with wizard defaults.
func (s *ProjectService) Create(ctx context.Context, name, premise string) (*ProjectSummary, error) {
	if strings.TrimSpace(name) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "create project", "name is required", nil)
	}
	p, err := s.store.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	doc := &backbone.Document{
		SchemaVersion: backbone.CurrentSchemaVersion,
		Wizard: backbone.WizardState{
			Premise:               strings.TrimSpace(premise),
			PacingStyle:           s.cfg.Wizard.PacingStyle,
			TargetDurationSeconds: s.cfg.Wizard.TargetDurationSeconds,
			Language:              s.cfg.Wizard.Language,
		},
		Backbone: backbone.New(),
	}
	if err := s.saveDocument(ctx, p, doc); err != nil {
		return nil, err
	}
	summary := summarize(p)
	return &summary, nil
}

// Generate runs the full stage pipeline for a project and persists the
// resulting backbone. The project moves draft/stale -> generating -> ready;
// failures record the error and map transient backend trouble to stale.
func (s *ProjectService) Generate(ctx context.Context, id int64) error {
	p, doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	orch, err := s.orchestrator(ctx)
	if err != nil {
		return err
	}

	// Claim the run with a guarded transition so a concurrent trigger
	// cannot pass the same gate between our load and our update.
	claimed, err := s.store.TransitionStatus(ctx, p.ID, project.StatusGenerating,
		project.StatusDraft, project.StatusReady, project.StatusStale, project.StatusFailed)
	if err != nil {
		return err
	}
	if !claimed {
		return services.Wrap(services.ErrConflict, "", "generate", "generation already running", nil)
	}
	p.Status = project.StatusGenerating
	p.ErrorMessage = ""

	result, err := orch.Run(ctx, requestFrom(doc.Wizard))
	if err != nil {
		s.recordFailure(ctx, p, err)
		return err
	}

	doc.Backbone = result
	doc.Wizard.CurrentStep = wizardStepComplete
	p.Status = project.StatusReady
	p.RevisionState = string(revision.StateIdle)
	p.QuestionsJSON = ""
	return s.saveDocument(ctx, p, doc)
}

// EditEntities applies a user mutation to the backbone's upstream entities.
// Edits are rejected while a regeneration is in flight; otherwise the change
// detector runs and the project flips to stale when the baseline no longer
// matches.
func (s *ProjectService) EditEntities(ctx context.Context, id int64, edit func(*backbone.ProjectBackbone) error) (revision.State, error) {
	p, doc, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if revision.State(p.RevisionState).InFlight() {
		return "", services.Wrap(services.ErrConflict, "", "edit entities",
			fmt.Sprintf("regeneration in flight (state %s)", p.RevisionState), nil)
	}
	if err := edit(doc.Backbone); err != nil {
		return "", err
	}

	state := revision.StateIdle
	if doc.Backbone.DetectChanges() {
		state = revision.StateDetected
		p.Status = project.StatusStale
	} else if p.Status == project.StatusStale && p.ErrorMessage == "" {
		p.Status = project.StatusReady
	}
	p.RevisionState = string(state)
	if err := s.saveDocument(ctx, p, doc); err != nil {
		return "", err
	}
	return state, nil
}

// Regenerate propagates detected upstream edits through the scene subtree.
func (s *ProjectService) Regenerate(ctx context.Context, id int64) (RegenerateResponse, error) {
	p, doc, err := s.load(ctx, id)
	if err != nil {
		return RegenerateResponse{}, err
	}
	if revision.State(p.RevisionState).InFlight() {
		return RegenerateResponse{}, services.Wrap(services.ErrConflict, "", "regenerate",
			fmt.Sprintf("regeneration in flight (state %s)", p.RevisionState), nil)
	}
	manager, err := s.manager(ctx, p)
	if err != nil {
		return RegenerateResponse{}, err
	}

	if state := manager.Refresh(doc.Backbone); state != revision.StateDetected {
		return RegenerateResponse{}, services.Wrap(services.ErrConflict, "", "regenerate",
			fmt.Sprintf("nothing to regenerate (state %s)", state), nil)
	}

	// Claim in-flight state on the row before the long run so a concurrent
	// trigger or entity edit sees it; the guard is the state loaded above.
	claimed, err := s.store.TransitionRevisionState(ctx, p.ID, string(revision.StateAnalyzing), p.RevisionState)
	if err != nil {
		return RegenerateResponse{}, err
	}
	if !claimed {
		return RegenerateResponse{}, services.Wrap(services.ErrConflict, "", "regenerate",
			"another regeneration claimed this change", nil)
	}
	p.RevisionState = string(revision.StateAnalyzing)

	outcome, err := manager.BeginRegeneration(ctx, doc.Backbone, requestFrom(doc.Wizard))
	return s.finishRevision(ctx, p, doc, manager, outcome, err)
}

// SubmitAnswers resumes a regeneration waiting on clarification answers.
func (s *ProjectService) SubmitAnswers(ctx context.Context, id int64, answers map[string]string) (RegenerateResponse, error) {
	p, doc, err := s.load(ctx, id)
	if err != nil {
		return RegenerateResponse{}, err
	}
	if revision.State(p.RevisionState).InFlight() {
		return RegenerateResponse{}, services.Wrap(services.ErrConflict, "", "submit answers",
			fmt.Sprintf("regeneration in flight (state %s)", p.RevisionState), nil)
	}
	manager, err := s.manager(ctx, p)
	if err != nil {
		return RegenerateResponse{}, err
	}

	prior := p.RevisionState
	claimed, err := s.store.TransitionRevisionState(ctx, p.ID, string(revision.StateRegenerating), prior)
	if err != nil {
		return RegenerateResponse{}, err
	}
	if !claimed {
		return RegenerateResponse{}, services.Wrap(services.ErrConflict, "", "submit answers",
			"another regeneration claimed this change", nil)
	}
	p.RevisionState = string(revision.StateRegenerating)

	outcome, err := manager.SubmitAnswers(ctx, doc.Backbone, answers, requestFrom(doc.Wizard))
	if err != nil && (errors.Is(err, services.ErrClarificationIncomplete) || errors.Is(err, services.ErrConflict)) {
		// Nothing started; put the row back so pending questions survive.
		p.RevisionState = prior
		if _, restoreErr := s.store.TransitionRevisionState(ctx, p.ID, prior, string(revision.StateRegenerating)); restoreErr != nil {
			s.logger.Warn("restore revision state failed", logging.Error(restoreErr))
		}
		return RegenerateResponse{}, err
	}
	return s.finishRevision(ctx, p, doc, manager, outcome, err)
}

// wizardStepComplete marks a wizard whose project has been generated.
const wizardStepComplete = 5

func (s *ProjectService) finishRevision(ctx context.Context, p *project.Project, doc *backbone.Document, manager *revision.Manager, outcome revision.Outcome, runErr error) (RegenerateResponse, error) {
	if runErr != nil {
		// Incomplete answers leave the persisted row untouched so the
		// pending questions survive.
		if errors.Is(runErr, services.ErrClarificationIncomplete) {
			return RegenerateResponse{}, runErr
		}
		s.recordFailure(ctx, p, runErr)
		p.RevisionState = string(manager.State())
		if err := s.store.Update(ctx, p); err != nil {
			s.logger.Warn("persist revision state failed", logging.Error(err))
		}
		return RegenerateResponse{}, runErr
	}

	p.RevisionState = string(outcome.State)
	switch outcome.State {
	case revision.StateIdle:
		p.Status = project.StatusReady
		p.ErrorMessage = ""
		p.QuestionsJSON = ""
	case revision.StateAwaitingAnswers:
		p.Status = project.StatusStale
		encoded, err := encodeQuestions(outcome.Questions)
		if err != nil {
			return RegenerateResponse{}, err
		}
		p.QuestionsJSON = encoded
	}
	if err := s.saveDocument(ctx, p, doc); err != nil {
		return RegenerateResponse{}, err
	}
	return RegenerateResponse{
		State:     string(outcome.State),
		Questions: questionViews(outcome.Questions),
	}, nil
}

func (s *ProjectService) recordFailure(ctx context.Context, p *project.Project, cause error) {
	p.Status = services.FailureStatus(cause)
	p.ErrorMessage = cause.Error()
	if err := s.store.Update(ctx, p); err != nil {
		s.logger.Warn("persist failure status failed", logging.Error(err))
	}
}

func (s *ProjectService) load(ctx context.Context, id int64) (*project.Project, *backbone.Document, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "", "load project", fmt.Sprintf("project %d", id), nil)
	}
	if p.DocumentJSON == "" {
		return p, &backbone.Document{
			SchemaVersion: backbone.CurrentSchemaVersion,
			Backbone:      backbone.New(),
		}, nil
	}
	doc, err := backbone.DecodeDocument(strings.NewReader(p.DocumentJSON))
	if err != nil {
		return nil, nil, services.Wrap(services.ErrImportFormat, "", "load project", "", err)
	}
	return p, doc, nil
}

func (s *ProjectService) saveDocument(ctx context.Context, p *project.Project, doc *backbone.Document) error {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return services.Wrap(services.ErrValidation, "", "save project", "", err)
	}
	p.DocumentJSON = buf.String()
	return s.store.Update(ctx, p)
}

func (s *ProjectService) orchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	settings := s.cfg.GetGeneration()
	client, err := s.newClient(ctx, settings)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build generation client", "", err)
	}
	opts := []pipeline.Option{pipeline.WithStageRetries(settings.StageRetries)}
	if s.sink != nil {
		opts = append(opts, pipeline.WithProgressSink(s.sink))
	}
	return pipeline.NewOrchestrator(client, s.logger, opts...), nil
}

func (s *ProjectService) manager(ctx context.Context, p *project.Project) (*revision.Manager, error) {
	orch, err := s.orchestrator(ctx)
	if err != nil {
		return nil, err
	}
	settings := s.cfg.GetGeneration()
	client, err := s.newClient(ctx, settings)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build generation client", "", err)
	}
	manager := revision.NewManager(orch, revision.NewAnalyzer(client, s.logger), s.logger)

	var questions []revision.Question
	if p.QuestionsJSON != "" {
		questions, err = decodeQuestions(p.QuestionsJSON)
		if err != nil {
			return nil, err
		}
	}
	manager.Restore(revision.State(p.RevisionState), questions)
	return manager, nil
}

func requestFrom(wizard backbone.WizardState) stage.Request {
	return stage.Request{
		Premise:               wizard.Premise,
		PacingStyle:           wizard.PacingStyle,
		TargetDurationSeconds: wizard.TargetDurationSeconds,
		Language:              wizard.Language,
	}
}

func summarize(p *project.Project) ProjectSummary {
	return ProjectSummary{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Status:        string(p.Status),
		RevisionState: p.RevisionState,
		ErrorMessage:  p.ErrorMessage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func questionViews(questions []revision.Question) []QuestionView {
	if len(questions) == 0 {
		return nil
	}
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, QuestionView{ID: q.ID, Text: q.Text, Options: q.Options})
	}
	return views
}

func encodeQuestions(questions []revision.Question) (string, error) {
	if len(questions) == 0 {
		return "", nil
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "encode questions", "", err)
	}
	return string(data), nil
}

func decodeQuestions(raw string) ([]revision.Question, error) {
	var questions []revision.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "decode questions", "", err)
	}
	return questions, nil
}
