package stage

import (
	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
)

// Registry returns the full stage table in declaration order. Callers run
// Sort on the result before execution.
func Registry() []Definition {
	return []Definition{
		{
			Name:         Bible,
			SystemPrompt: biblePrompt,
			BuildContext: bibleContext,
			Apply:        applyBible,
		},
		{
			Name:         Cast,
			DependsOn:    []string{Bible},
			SystemPrompt: castPrompt,
			BuildContext: bibleDerivedContext,
			Apply:        applyCast,
		},
		{
			Name:         Locations,
			DependsOn:    []string{Cast},
			SystemPrompt: locationsPrompt,
			BuildContext: castDerivedContext,
			Apply:        applyLocations,
		},
		{
			Name:         Screenplay,
			DependsOn:    []string{Locations},
			SystemPrompt: screenplayPrompt,
			BuildContext: screenplayContext,
			Apply:        applyScreenplay,
		},
		{
			Name:         Shots,
			DependsOn:    []string{Screenplay},
			SystemPrompt: shotsPrompt,
			BuildContext: shotsContext,
			Apply:        applyShots,
		},
		{
			Name:         Cinematography,
			DependsOn:    []string{Shots},
			SystemPrompt: cinematographyPrompt,
			BuildContext: shotEnrichmentContext,
			Apply:        applyCinematography,
		},
		{
			Name:         ArtDirection,
			DependsOn:    []string{Cinematography},
			SystemPrompt: artDirectionPrompt,
			BuildContext: shotEnrichmentContext,
			Apply:        applyArtDirection,
		},
		{
			Name:         Continuity,
			DependsOn:    []string{ArtDirection},
			SystemPrompt: continuityPrompt,
			BuildContext: continuityContext,
			Apply:        applyContinuity,
			Terminal:     true,
		},
	}
}

// RegenerationStages returns the downstream stage names re-run when upstream
// entities change: the scene subtree is rebuilt from the screenplay onward.
func RegenerationStages() []string {
	return []string{Screenplay, Shots, Cinematography, ArtDirection, Continuity}
}

func bibleContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	return contextJSON(requestContext(req))
}

func bibleDerivedContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["meta"] = b.Meta
	ctx["styleGuide"] = b.StyleGuide
	return contextJSON(ctx)
}

func castDerivedContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["meta"] = b.Meta
	ctx["styleGuide"] = b.StyleGuide
	ctx["characters"] = b.Characters
	ctx["items"] = b.Items
	return contextJSON(ctx)
}

func screenplayContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["meta"] = b.Meta
	ctx["styleGuide"] = b.StyleGuide
	ctx["characters"] = b.Characters
	ctx["items"] = b.Items
	ctx["locations"] = b.Locations
	return contextJSON(ctx)
}

func shotsContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["characters"] = b.Characters
	ctx["locations"] = b.Locations
	ctx["scenes"] = b.Scenes
	return contextJSON(ctx)
}

func shotEnrichmentContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["styleGuide"] = b.StyleGuide
	ctx["characters"] = b.Characters
	ctx["locations"] = b.Locations
	ctx["scenes"] = b.Scenes
	return contextJSON(ctx)
}

func continuityContext(b *backbone.ProjectBackbone, req Request) (string, error) {
	ctx := requestContext(req)
	ctx["backbone"] = b
	return contextJSON(ctx)
}
