package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Generation.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.AssetDir = filepath.Join(base, "assets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithProvider switches the configured generation provider.
func WithProvider(provider string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Generation.Provider = provider
	}
}

// WithAssetsEnabled turns asset generation on against the given service URL.
func WithAssetsEnabled(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Assets.Enabled = true
		cfg.Assets.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
