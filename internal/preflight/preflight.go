package preflight

import (
	"context"

	"github.com/goboss33/StoryGenAI-sub001/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckGenerationBackend(ctx, cfg.GetGeneration()))

	if cfg.Assets.Enabled {
		results = append(results, CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir))
		results = append(results, CheckFreeSpace("Asset disk space", cfg.Paths.AssetDir, cfg.Assets.MinFreeGiB))
		results = append(results, CheckAssetService(ctx, cfg.Assets.BaseURL, cfg.Assets.APIKey))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
