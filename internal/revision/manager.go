package revision

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/pipeline"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
	"github.com/goboss33/StoryGenAI-sub001/internal/stage"
)

// Outcome reports where a regeneration trigger landed: either the scenes were
// regenerated (StateIdle), or clarification questions are pending.
type Outcome struct {
	State     State
	Questions []Question
}

// Manager owns one project's change-propagation state machine. All methods
// are safe for concurrent use; triggers are single-flight, never queued.
type Manager struct {
	orchestrator *pipeline.Orchestrator
	analyzer     *Analyzer
	logger       *slog.Logger

	mu        sync.Mutex
	state     State
	questions []Question
}

// NewManager constructs a manager starting in the idle state.
func NewManager(orchestrator *pipeline.Orchestrator, analyzer *Analyzer, logger *slog.Logger) *Manager {
	return &Manager{
		orchestrator: orchestrator,
		analyzer:     analyzer,
		logger:       logging.NewComponentLogger(logger, "revision"),
		state:        StateIdle,
	}
}

// Restore rehydrates persisted state, for example after a process restart.
func (m *Manager) Restore(state State, questions []Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == "" {
		state = StateIdle
	}
	// In-flight states do not survive a restart; the work they named is gone.
	if state.InFlight() {
		state = StateDetected
	}
	m.state = state
	m.questions = questions
}

// State returns the current machine state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Questions returns the outstanding clarification questions, if any.
func (m *Manager) Questions() []Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// Refresh compares the backbone's upstream entities against its baseline and
// moves between idle and detected accordingly. It never interrupts an
// in-flight analysis or regeneration and never discards pending questions.
func (m *Manager) Refresh(b *backbone.ProjectBackbone) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.InFlight() || m.state == StateAwaitingAnswers {
		return m.state
	}
	if b.DetectChanges() {
		m.state = StateDetected
	} else {
		m.state = StateIdle
	}
	return m.state
}

// GuardEdit reports whether upstream entities may be mutated right now.
// Edits are rejected while analysis or regeneration is in flight.
func (m *Manager) GuardEdit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.InFlight() {
		return services.Wrap(services.ErrConflict, "clarify", "edit entity",
			fmt.Sprintf("regeneration in flight (state %s)", m.state), nil)
	}
	return nil
}

// BeginRegeneration triggers propagation of detected upstream changes. If the
// delta is unambiguous the downstream stages re-run immediately and the scene
// subtree is swapped on success; if it is ambiguous the questions are stored
// and the caller must come back through SubmitAnswers. A trigger while
// another one is in flight is rejected with a conflict error.
func (m *Manager) BeginRegeneration(ctx context.Context, b *backbone.ProjectBackbone, req stage.Request) (Outcome, error) {
	if err := m.advance(StateDetected, StateAnalyzing, "trigger regeneration"); err != nil {
		return Outcome{}, err
	}

	analysis, err := m.analyzer.Analyze(ctx, b.Baseline, b)
	if err != nil {
		m.setState(StateDetected)
		return Outcome{}, err
	}

	if analysis.Status == StatusQuestion {
		m.mu.Lock()
		m.questions = analysis.Questions
		m.state = StateAwaitingAnswers
		m.mu.Unlock()
		m.logger.Info("clarification required", logging.Int("questions", len(analysis.Questions)))
		return Outcome{State: StateAwaitingAnswers, Questions: analysis.Questions}, nil
	}

	m.setState(StateRegenerating)
	return m.regenerate(ctx, b, req)
}

// SubmitAnswers resumes an awaiting regeneration. Every outstanding question
// must have a non-empty answer; otherwise the submission is rejected without
// a generation call and the machine stays in awaiting_answers.
func (m *Manager) SubmitAnswers(ctx context.Context, b *backbone.ProjectBackbone, answers map[string]string, req stage.Request) (Outcome, error) {
	m.mu.Lock()
	if m.state != StateAwaitingAnswers {
		state := m.state
		m.mu.Unlock()
		return Outcome{}, services.Wrap(services.ErrConflict, "clarify", "submit answers",
			fmt.Sprintf("no questions pending (state %s)", state), nil)
	}
	var missing []string
	for _, q := range m.questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		m.mu.Unlock()
		sort.Strings(missing)
		return Outcome{}, services.Wrap(services.ErrClarificationIncomplete, "clarify", "submit answers",
			"unanswered questions: "+strings.Join(missing, ", "), nil)
	}
	questions := m.questions
	m.state = StateRegenerating
	m.mu.Unlock()

	if req.Answers == nil {
		req.Answers = make(map[string]string, len(questions))
	}
	for _, q := range questions {
		req.Answers[q.ID] = fmt.Sprintf("%s -> %s", q.Text, answers[q.ID])
	}
	return m.regenerate(ctx, b, req)
}

// regenerate re-runs the screenplay-and-later stages against the current
// upstream entities. On success the scene subtree is replaced wholesale and a
// new baseline is committed; on failure the backbone is left untouched and
// the machine returns to detected.
func (m *Manager) regenerate(ctx context.Context, b *backbone.ProjectBackbone, req stage.Request) (Outcome, error) {
	result, err := m.orchestrator.RunStages(ctx, b, stage.RegenerationStages(), req)
	if err != nil {
		m.setState(StateDetected)
		return Outcome{}, err
	}

	b.ReplaceScenes(result.Scenes)
	b.Continuity = result.Continuity
	if err := b.CommitBaseline(); err != nil {
		m.setState(StateDetected)
		return Outcome{}, services.Wrap(services.ErrValidation, "clarify", "commit baseline", "", err)
	}

	m.mu.Lock()
	m.questions = nil
	m.state = StateIdle
	m.mu.Unlock()
	m.logger.Info("regeneration complete", logging.Int("scenes", len(b.Scenes)))
	return Outcome{State: StateIdle}, nil
}

func (m *Manager) advance(from, to State, op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from || !m.state.CanTransition(to) {
		return services.Wrap(services.ErrConflict, "clarify", op,
			fmt.Sprintf("cannot move from %s", m.state), nil)
	}
	m.state = to
	return nil
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
}
