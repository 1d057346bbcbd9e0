// Package config loads and validates the storygen TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/storygen/config.toml, then ./storygen.toml. Missing files fall
// back to Default() so the CLI works out of the box for everything that does
// not need a generation API key. All path fields are tilde-expanded and made
// absolute during load.
package config
