package testsupport

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedCall records one CompleteJSON invocation.
type ScriptedCall struct {
	SystemPrompt string
	UserPrompt   string
}

// ScriptedClient is a generation.Client that replays canned responses in
// order and records every call. Responses may be plain payloads or errors.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	calls     []ScriptedCall
}

// ScriptedResponse is one canned turn: either a payload or an error.
type ScriptedResponse struct {
	Payload string
	Err     error
}

// NewScriptedClient builds a client that returns the given responses in
// order. Once the script runs out, further calls fail.
func NewScriptedClient(responses ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// Respond appends a successful payload to the script.
func (c *ScriptedClient) Respond(payload string) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, ScriptedResponse{Payload: payload})
	return c
}

// Fail appends an error turn to the script.
func (c *ScriptedClient) Fail(err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, ScriptedResponse{Err: err})
	return c
}

// CompleteJSON implements generation.Client.
func (c *ScriptedClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ScriptedCall{SystemPrompt: systemPrompt, UserPrompt: userPrompt})
	if len(c.responses) == 0 {
		return "", fmt.Errorf("scripted client exhausted after %d calls", len(c.calls))
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	if next.Err != nil {
		return "", next.Err
	}
	return next.Payload, nil
}

// Calls returns the recorded invocations.
func (c *ScriptedClient) Calls() []ScriptedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ScriptedCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times CompleteJSON ran.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
