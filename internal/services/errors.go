package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goboss33/StoryGenAI-sub001/internal/project"
)

var (
	// ErrSchemaValidation marks stage output that does not match the expected shape.
	ErrSchemaValidation = errors.New("schema validation error")
	// ErrGenerationBackend marks network/provider failures from the generation client.
	ErrGenerationBackend = errors.New("generation backend error")
	// ErrImportFormat marks a malformed persisted project document.
	ErrImportFormat = errors.New("invalid project file")
	// ErrClarificationIncomplete marks a regeneration submitted with unanswered questions.
	ErrClarificationIncomplete = errors.New("clarification incomplete")
	// ErrConflict marks an operation rejected because another one is in flight.
	ErrConflict = errors.New("operation conflict")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a pipeline error to the project status the caller should
// persist after the failure. Backend and transient failures leave the project
// retryable, and so does caller-driven cancellation: abandoning a run discards
// its result without condemning the project. Everything else needs user
// attention.
func FailureStatus(err error) project.Status {
	switch {
	case errors.Is(err, ErrGenerationBackend), errors.Is(err, ErrTransient):
		return project.StatusStale
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return project.StatusStale
	default:
		return project.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
