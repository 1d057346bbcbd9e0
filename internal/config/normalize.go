package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizeWizard()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	c.Generation.Provider = strings.ToLower(strings.TrimSpace(c.Generation.Provider))
	if c.Generation.Provider == "" {
		c.Generation.Provider = defaultProvider
	}
	if strings.TrimSpace(c.Generation.BaseURL) == "" {
		c.Generation.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Generation.Model) == "" {
		c.Generation.Model = defaultModel
	}
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Generation.StageRetries < 0 {
		c.Generation.StageRetries = defaultStageRetries
	}
}

func (c *Config) normalizeWizard() {
	if strings.TrimSpace(c.Wizard.Language) == "" {
		c.Wizard.Language = defaultLanguage
	}
	if strings.TrimSpace(c.Wizard.PacingStyle) == "" {
		c.Wizard.PacingStyle = defaultPacingStyle
	}
	if c.Wizard.TargetDurationSeconds <= 0 {
		c.Wizard.TargetDurationSeconds = defaultTargetSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
