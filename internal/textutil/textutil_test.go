package textutil_test

import (
	"testing"

	"github.com/goboss33/StoryGenAI-sub001/internal/textutil"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Lighthouse Signal", "the-lighthouse-signal"},
		{"  Padded  Title  ", "padded-title"},
		{"Episode #3: Night Watch", "episode-3-night-watch"},
		{"--already--slugged--", "already-slugged"},
		{"ALL CAPS", "all-caps"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range tests {
		if got := textutil.Slug(tc.input); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"storyboard.pdf", "storyboard.pdf"},
		{`shot<1>:"take"/two`, "shot1taketwo"},
		{"  trailing dots... ", "trailing dots"},
		{"///", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range tests {
		if got := textutil.SanitizeFileName(tc.input); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"the lighthouse signal", "The Lighthouse Signal"},
		{"  mara voss  ", "Mara Voss"},
		{"", "Untitled"},
		{"   ", "Untitled"},
	}
	for _, tc := range tests {
		if got := textutil.DisplayTitle(tc.input); got != tc.want {
			t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
