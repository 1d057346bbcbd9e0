package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
)

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want project.Status
	}{
		{
			name: "backend failure is retryable",
			err:  services.Wrap(services.ErrGenerationBackend, "cast", "invoke generation backend", "", errors.New("503")),
			want: project.StatusStale,
		},
		{
			name: "transient failure is retryable",
			err:  services.Wrap(services.ErrTransient, "cast", "clone backbone", "", nil),
			want: project.StatusStale,
		},
		{
			name: "cancellation is abandonment, not failure",
			err:  context.Canceled,
			want: project.StatusStale,
		},
		{
			name: "wrapped cancellation is abandonment too",
			err:  fmt.Errorf("stage aborted: %w", context.Canceled),
			want: project.StatusStale,
		},
		{
			name: "deadline expiry is retryable",
			err:  context.DeadlineExceeded,
			want: project.StatusStale,
		},
		{
			name: "schema rejection needs attention",
			err:  services.Wrap(services.ErrSchemaValidation, "cast", "validate stage output", "failed after 3 attempts", nil),
			want: project.StatusFailed,
		},
		{
			name: "validation error needs attention",
			err:  services.Wrap(services.ErrValidation, "", "generate", "premise is required", nil),
			want: project.StatusFailed,
		},
		{
			name: "unclassified error needs attention",
			err:  errors.New("boom"),
			want: project.StatusFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureStatus(tc.err); got != tc.want {
				t.Fatalf("FailureStatus(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "clarify", "submit answers", "no pending questions", nil)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected marker to survive wrapping, got %v", err)
	}

	cause := errors.New("root cause")
	err = services.Wrap(services.ErrSchemaValidation, "cast", "validate stage output", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping, got %v", err)
	}
}
