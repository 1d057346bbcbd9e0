// Package generation defines the boundary to the text generation backend.
//
// Pipeline stages and the clarification resolver depend only on the Client
// interface; real traffic goes through the llm or gemini service packages,
// tests inject scripted fakes from testsupport.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/services/gemini"
	"github.com/goboss33/StoryGenAI-sub001/internal/services/llm"
)

// Client is the stateless request/response interface every generation-backed
// step consumes: given prompts, return a raw JSON payload or an error.
type Client interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Error carries the stage and raw response alongside a backend failure so
// callers can retry intelligently.
type Error struct {
	Stage       string
	RawResponse string
	Err         error
}

func (e *Error) Error() string {
	if e.RawResponse != "" {
		return fmt.Sprintf("generation failed (stage=%s): %v (raw: %s)", e.Stage, e.Err, e.RawResponse)
	}
	return fmt.Sprintf("generation failed (stage=%s): %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewClient constructs the configured provider's generation client.
func NewClient(ctx context.Context, settings config.GenerationSettings) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case "", "openrouter":
		return llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		}), nil
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	default:
		return nil, fmt.Errorf("generation: unknown provider %q", settings.Provider)
	}
}
