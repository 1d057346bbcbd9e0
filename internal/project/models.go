package project

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a project.
type Status string

const (
	// StatusDraft means the wizard has not finished collecting inputs.
	StatusDraft Status = "draft"
	// StatusGenerating means the stage pipeline is running.
	StatusGenerating Status = "generating"
	// StatusReady means a full bible exists and matches its baseline.
	StatusReady Status = "ready"
	// StatusStale means upstream entities were edited after generation, or a
	// transient backend failure left the last run incomplete but retryable.
	StatusStale Status = "stale"
	// StatusFailed means the last run produced output the schema rejected.
	StatusFailed Status = "failed"
	// StatusArchived means the project is hidden from default listings.
	StatusArchived Status = "archived"
)

var allStatuses = []Status{
	StatusDraft,
	StatusGenerating,
	StatusReady,
	StatusStale,
	StatusFailed,
	StatusArchived,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminalFailure reports whether the status needs user intervention
// before another generation run makes sense.
func (s Status) IsTerminalFailure() bool {
	return s == StatusFailed
}

// Project is a production-bible project persisted in SQLite.
type Project struct {
	ID            int64
	Name          string
	Slug          string
	Status        Status
	DocumentJSON  string
	RevisionState string
	QuestionsJSON string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SetFailed marks the project as failed with the given message.
func (p *Project) SetFailed(message string) {
	p.Status = StatusFailed
	p.ErrorMessage = message
}

// SetStale marks the project as stale, keeping any prior error message
// cleared so the stale reason is unambiguous.
func (p *Project) SetStale(message string) {
	p.Status = StatusStale
	p.ErrorMessage = message
}
