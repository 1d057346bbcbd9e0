package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Kind selects the media type an asset request produces.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ValidKind reports whether kind names a supported media type.
func ValidKind(kind Kind) bool {
	switch kind {
	case KindImage, KindVideo, KindAudio:
		return true
	}
	return false
}

// Request describes one asset to produce.
type Request struct {
	AssetID      string `json:"assetId"`
	Kind         Kind   `json:"kind"`
	Prompt       string `json:"prompt"`
	StyleContext string `json:"styleContext,omitempty"`
}

// Generator produces media for a single request and returns a stable URI.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const defaultGenerateTimeout = 5 * time.Minute

// HTTPGenerator calls an external media generation service over JSON HTTP.
type HTTPGenerator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGenerator constructs a generator against the given service.
func NewHTTPGenerator(baseURL, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultGenerateTimeout},
	}
}

type generateResponse struct {
	URI   string `json:"uri"`
	Error string `json:"error,omitempty"`
}

// Generate submits the request and waits for the service to return a URI.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if !ValidKind(req.Kind) {
		return "", fmt.Errorf("unsupported asset kind %q", req.Kind)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal asset request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build asset request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("asset service request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read asset response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset service returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode asset response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("asset service error: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.URI) == "" {
		return "", fmt.Errorf("asset service returned no uri")
	}
	return decoded.URI, nil
}
