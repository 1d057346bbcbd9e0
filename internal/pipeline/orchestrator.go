package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/generation"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
)

const defaultStageRetries = 2

// ProgressSink receives stage lifecycle events. Implementations must be
// non-blocking; the api hub fans events out to websocket subscribers.
type ProgressSink interface {
	StageStarted(stageName string)
	StageCompleted(stageName string)
	StageFailed(stageName string, err error)
}

// Orchestrator sequences the registered stages over one backbone at a time.
type Orchestrator struct {
	client  generation.Client
	logger  *slog.Logger
	retries int
	sink    ProgressSink
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithStageRetries overrides the number of additional attempts after a
// stage's output fails validation (defaults to 2).
func WithStageRetries(retries int) Option {
	return func(o *Orchestrator) {
		if retries >= 0 {
			o.retries = retries
		}
	}
}

// WithProgressSink registers a sink for stage lifecycle events.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// NewOrchestrator constructs an orchestrator around the generation client.
func NewOrchestrator(client generation.Client, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		retries: defaultStageRetries,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline for a fresh premise and returns the
// populated backbone with its baseline snapshot committed.
func (o *Orchestrator) Run(ctx context.Context, req stage.Request) (*backbone.ProjectBackbone, error) {
	if strings.TrimSpace(req.Premise) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "run pipeline", "premise is required", nil)
	}

	defs, err := stage.Sort(stage.Registry())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "run pipeline", "invalid stage registry", err)
	}

	working := backbone.New()
	for _, def := range defs {
		working, err = o.runStage(ctx, def, working, req)
		if err != nil {
			return nil, err
		}
	}

	if err := working.CommitBaseline(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "run pipeline", "commit baseline snapshot", err)
	}
	return working, nil
}

// RunStages executes the named stages in registry order against a clone of
// b and returns the resulting backbone. The input backbone is never mutated;
// the caller decides whether to adopt the result. Used by the regeneration
// executor for the downstream subtree.
func (o *Orchestrator) RunStages(ctx context.Context, b *backbone.ProjectBackbone, names []string, req stage.Request) (*backbone.ProjectBackbone, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	defs, err := stage.Sort(stage.Registry())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "run stages", "invalid stage registry", err)
	}

	working, err := b.Clone()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "run stages", "clone backbone", err)
	}

	matched := 0
	for _, def := range defs {
		if _, ok := wanted[def.Name]; !ok {
			continue
		}
		matched++
		working, err = o.runStage(ctx, def, working, req)
		if err != nil {
			return nil, err
		}
	}
	if matched != len(wanted) {
		return nil, services.Wrap(services.ErrConfiguration, "", "run stages", fmt.Sprintf("unknown stage in %v", names), nil)
	}
	return working, nil
}

func (o *Orchestrator) runStage(ctx context.Context, def stage.Definition, b *backbone.ProjectBackbone, req stage.Request) (*backbone.ProjectBackbone, error) {
	stageCtx := services.WithStage(ctx, def.Name)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	logger := logging.WithContext(stageCtx, o.logger)

	o.stageStarted(def.Name)
	logger.Info("stage started")

	attempts := o.retries + 1
	var lastErr error
	backendFailure := false

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := stageCtx.Err(); err != nil {
			o.stageFailed(def.Name, err)
			return nil, err
		}

		userPrompt, err := def.BuildContext(b, req)
		if err != nil {
			o.stageFailed(def.Name, err)
			return nil, services.Wrap(services.ErrValidation, def.Name, "build context", "", err)
		}

		raw, err := o.client.CompleteJSON(stageCtx, def.SystemPrompt, userPrompt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.stageFailed(def.Name, err)
				return nil, err
			}
			lastErr = err
			backendFailure = true
			logger.Warn("generation call failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err))
			continue
		}

		clone, err := b.Clone()
		if err != nil {
			o.stageFailed(def.Name, err)
			return nil, services.Wrap(services.ErrTransient, def.Name, "clone backbone", "", err)
		}
		if err := def.Apply(raw, clone); err != nil {
			lastErr = err
			backendFailure = false
			logger.Warn("stage output rejected",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err))
			continue
		}

		o.reportContinuity(def, clone, logger)
		o.stageCompleted(def.Name)
		logger.Info("stage completed", logging.Int(logging.FieldAttempt, attempt))
		return clone, nil
	}

	marker := services.ErrSchemaValidation
	operation := "validate stage output"
	if backendFailure {
		marker = services.ErrGenerationBackend
		operation = "invoke generation backend"
		lastErr = &generation.Error{Stage: def.Name, Err: lastErr}
	}
	err := services.Wrap(marker, def.Name, operation, fmt.Sprintf("failed after %d attempts", attempts), lastErr)
	o.stageFailed(def.Name, err)
	logger.Error("stage aborted", logging.Error(err))
	return nil, err
}

// reportContinuity logs the advisory verdict of a terminal validator stage.
func (o *Orchestrator) reportContinuity(def stage.Definition, b *backbone.ProjectBackbone, logger *slog.Logger) {
	if !def.Terminal || b.Continuity == nil {
		return
	}
	if b.Continuity.Status == backbone.ContinuityRejected {
		logger.Warn("continuity check rejected",
			logging.Int("issues", len(b.Continuity.Issues)),
			logging.String("first_issue", firstIssue(b.Continuity.Issues)))
	}
}

func firstIssue(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	return issues[0]
}

func (o *Orchestrator) stageStarted(name string) {
	if o.sink != nil {
		o.sink.StageStarted(name)
	}
}

func (o *Orchestrator) stageCompleted(name string) {
	if o.sink != nil {
		o.sink.StageCompleted(name)
	}
}

func (o *Orchestrator) stageFailed(name string, err error) {
	if o.sink != nil {
		o.sink.StageFailed(name, err)
	}
}
