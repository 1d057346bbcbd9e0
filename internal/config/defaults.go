package config

const (
	defaultDataDir        = "~/.local/share/storygen"
	defaultExportDir      = "~/storygen/exports"
	defaultAssetDir       = "~/storygen/assets"
	defaultLogDir         = "~/.local/share/storygen/logs"
	defaultAPIBind        = "127.0.0.1:7519"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultProvider       = "openrouter"
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel          = "google/gemini-3-flash-preview"
	defaultGeminiModel    = "gemini-3-flash-preview"
	defaultReferer        = "https://github.com/goboss33/StoryGenAI-sub001"
	defaultTitle          = "StoryGen Pipeline"
	defaultTimeoutSeconds = 120
	defaultStageRetries   = 2
	defaultAssetsFreeGiB  = 5
	defaultLanguage       = "en"
	defaultPacingStyle    = "balanced"
	defaultTargetSeconds  = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
			AssetDir:  defaultAssetDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Generation: Generation{
			Provider:       defaultProvider,
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Referer:        defaultReferer,
			Title:          defaultTitle,
			TimeoutSeconds: defaultTimeoutSeconds,
			StageRetries:   defaultStageRetries,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Assets: Assets{
			MinFreeGiB: defaultAssetsFreeGiB,
		},
		Wizard: Wizard{
			Language:              defaultLanguage,
			PacingStyle:           defaultPacingStyle,
			TargetDurationSeconds: defaultTargetSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
