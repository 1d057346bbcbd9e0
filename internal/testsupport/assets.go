package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/goboss33/StoryGenAI-sub001/internal/assets"
)

// RecordingGenerator is an assets.Generator that returns deterministic URIs
// and records every request it saw.
type RecordingGenerator struct {
	mu       sync.Mutex
	requests []assets.Request
	err      error
	block    chan struct{}
}

// NewRecordingGenerator builds a generator whose Generate always succeeds.
func NewRecordingGenerator() *RecordingGenerator {
	return &RecordingGenerator{}
}

// FailWith makes subsequent Generate calls return err.
func (g *RecordingGenerator) FailWith(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

// BlockUntil makes Generate wait on the returned channel before finishing,
// so tests can hold a request in flight.
func (g *RecordingGenerator) BlockUntil() chan<- struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block = make(chan struct{})
	return g.block
}

// Generate implements assets.Generator.
func (g *RecordingGenerator) Generate(ctx context.Context, req assets.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	err := g.err
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("asset://%s/%s", req.Kind, req.AssetID), nil
}

// Requests returns the recorded requests.
func (g *RecordingGenerator) Requests() []assets.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]assets.Request, len(g.requests))
	copy(out, g.requests)
	return out
}
