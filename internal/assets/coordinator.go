package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
)

// Coordinator serializes asset generation per asset id. A second request for
// an asset that already has one in flight is rejected, not queued.
type Coordinator struct {
	generator Generator
	store     *project.Store
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCoordinator constructs a coordinator around the given generator.
func NewCoordinator(generator Generator, store *project.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		generator: generator,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "assets"),
		inFlight:  make(map[string]struct{}),
	}
}

// GenerateEntityReference produces a reference image for a character,
// location, or item and records its URI on the entity.
func (c *Coordinator) GenerateEntityReference(ctx context.Context, projectID int64, b *backbone.ProjectBackbone, entityID string) (string, error) {
	prompt, target, err := entityPrompt(b, entityID)
	if err != nil {
		return "", err
	}
	uri, err := c.generate(ctx, projectID, Request{
		AssetID:      entityID,
		Kind:         KindImage,
		Prompt:       prompt,
		StyleContext: styleContext(b),
	})
	if err != nil {
		return "", err
	}
	*target = uri
	return uri, nil
}

// GenerateShotMedia produces one media asset for a shot using the prompts
// the enrichment stages wrote. The shot moves through processing to ready;
// a failed request puts it back to pending.
func (c *Coordinator) GenerateShotMedia(ctx context.Context, projectID int64, b *backbone.ProjectBackbone, shotID string, kind Kind) (string, error) {
	shot, err := findShot(b, shotID)
	if err != nil {
		return "", err
	}
	prompt, err := shotPrompt(shot, kind)
	if err != nil {
		return "", err
	}

	previous := shot.Status
	shot.Status = backbone.ShotProcessing
	uri, err := c.generate(ctx, projectID, Request{
		AssetID:      shotID + ":" + string(kind),
		Kind:         kind,
		Prompt:       prompt,
		StyleContext: styleContext(b),
	})
	if err != nil {
		shot.Status = previous
		return "", err
	}
	shot.Status = backbone.ShotReady
	return uri, nil
}

// generate runs one request through the single-flight gate, the persistence
// trail, and the generator.
func (c *Coordinator) generate(ctx context.Context, projectID int64, req Request) (string, error) {
	if err := c.acquire(ctx, projectID, req.AssetID); err != nil {
		return "", err
	}
	defer c.release(req.AssetID)

	requestID, err := c.store.RecordAssetRequest(ctx, projectID, req.AssetID, string(req.Kind))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assets", "record request", "", err)
	}

	uri, err := c.generator.Generate(ctx, req)
	if err != nil {
		if abandonErr := c.store.AbandonAssetRequest(ctx, requestID); abandonErr != nil {
			c.logger.Warn("abandon asset request failed",
				logging.String("asset_id", req.AssetID),
				logging.Error(abandonErr))
		}
		return "", services.Wrap(services.ErrGenerationBackend, "assets", "generate "+string(req.Kind), req.AssetID, err)
	}

	if err := c.store.CompleteAssetRequest(ctx, requestID, uri); err != nil {
		return "", services.Wrap(services.ErrValidation, "assets", "complete request", "", err)
	}
	c.logger.Info("asset generated",
		logging.String("asset_id", req.AssetID),
		logging.String("kind", string(req.Kind)))
	return uri, nil
}

func (c *Coordinator) acquire(ctx context.Context, projectID int64, assetID string) error {
	c.mu.Lock()
	if _, busy := c.inFlight[assetID]; busy {
		c.mu.Unlock()
		return services.Wrap(services.ErrConflict, "assets", "generate",
			fmt.Sprintf("asset %s already has a request in flight", assetID), nil)
	}
	c.inFlight[assetID] = struct{}{}
	c.mu.Unlock()

	outstanding, err := c.store.HasOutstandingAssetRequest(ctx, projectID, assetID)
	if err != nil {
		c.release(assetID)
		return services.Wrap(services.ErrValidation, "assets", "check outstanding", "", err)
	}
	if outstanding {
		c.release(assetID)
		return services.Wrap(services.ErrConflict, "assets", "generate",
			fmt.Sprintf("asset %s has an unfinished request on record", assetID), nil)
	}
	return nil
}

func (c *Coordinator) release(assetID string) {
	c.mu.Lock()
	delete(c.inFlight, assetID)
	c.mu.Unlock()
}

func entityPrompt(b *backbone.ProjectBackbone, entityID string) (string, *string, error) {
	if character, ok := b.CharacterByID(entityID); ok {
		prompt := joinNonEmpty("Character reference portrait of "+character.Name,
			character.Description, character.Appearance)
		return prompt, &character.ReferenceImage, nil
	}
	if location, ok := b.LocationByID(entityID); ok {
		prompt := joinNonEmpty("Establishing view of "+location.Name,
			location.Description, location.Mood, location.TimeOfDay)
		return prompt, &location.ReferenceImage, nil
	}
	if item, ok := b.ItemByID(entityID); ok {
		prompt := joinNonEmpty("Prop reference of "+item.Name, item.Description)
		return prompt, &item.ReferenceImage, nil
	}
	return "", nil, services.Wrap(services.ErrNotFound, "assets", "resolve entity", entityID, nil)
}

func findShot(b *backbone.ProjectBackbone, shotID string) (*backbone.Shot, error) {
	for i := range b.Scenes {
		for j := range b.Scenes[i].Shots {
			if b.Scenes[i].Shots[j].ID == shotID {
				return &b.Scenes[i].Shots[j], nil
			}
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "assets", "resolve shot", shotID, nil)
}

func shotPrompt(shot *backbone.Shot, kind Kind) (string, error) {
	var prompt string
	switch kind {
	case KindImage:
		prompt = shot.Content.ImagePrompt
	case KindVideo:
		prompt = shot.Content.VideoPrompt
	case KindAudio:
		prompt = shot.Audio.Ambience
	default:
		return "", fmt.Errorf("unsupported asset kind %q", kind)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "assets", "build prompt",
			fmt.Sprintf("shot %s has no %s prompt; run the enrichment stages first", shot.ID, kind), nil)
	}
	return prompt, nil
}

func styleContext(b *backbone.ProjectBackbone) string {
	return joinNonEmpty(b.StyleGuide.VisualStyle,
		b.StyleGuide.LightingMood,
		b.StyleGuide.CameraLanguage,
		strings.Join(b.StyleGuide.Palette, ", "))
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, ". ")
}
