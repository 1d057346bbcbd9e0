package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	ExportDir string `toml:"export_dir"`
	AssetDir  string `toml:"asset_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Generation contains the connection settings for the generation backend.
type Generation struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// StageRetries is the number of additional attempts after a stage's
	// output fails schema validation.
	StageRetries int `toml:"stage_retries"`
}

// Gemini contains settings for the Google GenAI provider.
type Gemini struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Assets contains settings for reference image / shot media generation.
type Assets struct {
	Enabled    bool   `toml:"enabled"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	MinFreeGiB int    `toml:"min_free_gib"`
}

// Wizard contains the default project settings applied to new projects.
type Wizard struct {
	Language              string `toml:"language"`
	PacingStyle           string `toml:"pacing_style"`
	TargetDurationSeconds int    `toml:"target_duration_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storygen.
//
// Configuration sections by subsystem:
//   - Paths: data/export/asset/log directories and API bind address
//   - Generation: shared generation backend connection settings
//   - Gemini: Google GenAI provider overrides
//   - Assets: reference image and shot media generation
//   - Wizard: defaults for new projects (language, pacing, duration)
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Generation Generation `toml:"generation"`
	Gemini     Gemini     `toml:"gemini"`
	Assets     Assets     `toml:"assets"`
	Wizard     Wizard     `toml:"wizard"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storygen/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storygen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ExportDir) != "" {
		// Best-effort so config load survives an offline export target.
		_ = os.MkdirAll(c.Paths.ExportDir, 0o755)
	}
	if c.Assets.Enabled && strings.TrimSpace(c.Paths.AssetDir) != "" {
		if err := os.MkdirAll(c.Paths.AssetDir, 0o755); err != nil {
			return fmt.Errorf("create asset directory %q: %w", c.Paths.AssetDir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GenerationSettings contains the resolved generation backend connection settings.
type GenerationSettings struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	StageRetries   int
}

// GetGeneration returns the generation connection settings with provider
// fallbacks applied.
func (c *Config) GetGeneration() GenerationSettings {
	settings := GenerationSettings{
		Provider:       strings.ToLower(strings.TrimSpace(c.Generation.Provider)),
		APIKey:         strings.TrimSpace(c.Generation.APIKey),
		BaseURL:        strings.TrimSpace(c.Generation.BaseURL),
		Model:          strings.TrimSpace(c.Generation.Model),
		Referer:        strings.TrimSpace(c.Generation.Referer),
		Title:          strings.TrimSpace(c.Generation.Title),
		TimeoutSeconds: c.Generation.TimeoutSeconds,
		StageRetries:   c.Generation.StageRetries,
	}
	if settings.Provider == "gemini" {
		if key := strings.TrimSpace(c.Gemini.APIKey); key != "" {
			settings.APIKey = key
		}
		if model := strings.TrimSpace(c.Gemini.Model); model != "" {
			settings.Model = model
		}
	}
	return settings
}
