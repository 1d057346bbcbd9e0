package revision

// State is one step of the change-propagation state machine.
type State string

const (
	// StateIdle means scenes match the baseline; nothing is pending.
	StateIdle State = "idle"
	// StateDetected means upstream entities differ from the baseline.
	StateDetected State = "detected"
	// StateAnalyzing means the clarification resolver is running.
	StateAnalyzing State = "analyzing"
	// StateAwaitingAnswers means ambiguous changes need user answers.
	StateAwaitingAnswers State = "awaiting_answers"
	// StateRegenerating means the downstream stages are re-running.
	StateRegenerating State = "regenerating"
)

var transitions = map[State][]State{
	StateIdle:            {StateDetected},
	StateDetected:        {StateIdle, StateAnalyzing},
	StateAnalyzing:       {StateDetected, StateAwaitingAnswers, StateRegenerating},
	StateAwaitingAnswers: {StateDetected, StateRegenerating},
	StateRegenerating:    {StateIdle, StateDetected},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InFlight reports whether s blocks concurrent regeneration requests and
// upstream edits.
func (s State) InFlight() bool {
	return s == StateAnalyzing || s == StateRegenerating
}
