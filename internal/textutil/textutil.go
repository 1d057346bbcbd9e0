// Package textutil provides small text helpers for filenames and display titles.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	slugPattern     = regexp.MustCompile(`[^a-z0-9]+`)
	unsafePathChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	titleCaser      = cases.Title(language.English)
)

// Slug converts text into a lowercase hyphen-separated identifier suitable
// for file names. Empty input yields "untitled".
func Slug(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	slug := strings.Trim(slugPattern.ReplaceAllString(lowered, "-"), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// SanitizeFileName strips characters that are unsafe in file names and
// collapses surrounding whitespace.
func SanitizeFileName(name string) string {
	cleaned := unsafePathChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// DisplayTitle title-cases a project or entity name for CLI and export output.
func DisplayTitle(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Untitled"
	}
	return titleCaser.String(trimmed)
}
