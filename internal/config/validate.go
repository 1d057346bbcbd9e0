package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateWizard(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.Provider {
	case "openrouter", "gemini":
	default:
		return fmt.Errorf("generation.provider must be openrouter or gemini, got %q", c.Generation.Provider)
	}
	if c.Generation.TimeoutSeconds <= 0 {
		return errors.New("generation.timeout_seconds must be positive")
	}
	if c.Generation.StageRetries < 0 {
		return errors.New("generation.stage_retries must not be negative")
	}
	return nil
}

func (c *Config) validateWizard() error {
	if c.Wizard.TargetDurationSeconds <= 0 {
		return errors.New("wizard.target_duration_seconds must be positive")
	}
	switch c.Wizard.PacingStyle {
	case "slow", "balanced", "fast":
	default:
		return fmt.Errorf("wizard.pacing_style must be slow, balanced, or fast, got %q", c.Wizard.PacingStyle)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateAssets() error {
	if !c.Assets.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Assets.BaseURL) == "" {
		return errors.New("assets.base_url must be set when assets are enabled")
	}
	if c.Assets.MinFreeGiB < 0 {
		return errors.New("assets.min_free_gib must not be negative")
	}
	return nil
}
