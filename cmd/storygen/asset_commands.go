package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/assets"
	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/services"
)

// newAssetCommand groups asset generation under one verb.
func newAssetCommand(ctx *commandContext) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Generate media assets for bible entities and shots",
	}
	assetCmd.AddCommand(newAssetEntityCommand(ctx))
	assetCmd.AddCommand(newAssetShotCommand(ctx))
	return assetCmd
}

func newAssetEntityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "entity <project-id> <entity-id>",
		Short: "Generate a reference image for a character, location, or item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			entityID := args[1]
			return withAssetCoordinator(ctx, func(cfg *config.Config, store *project.Store, coordinator *assets.Coordinator) error {
				return mutateDocument(cmd, store, id, func(p *project.Project, doc *backbone.Document) error {
					uri, err := coordinator.GenerateEntityReference(cmd.Context(), p.ID, doc.Backbone, entityID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Reference image for %s: %s\n", entityID, uri)
					return nil
				})
			})
		},
	}
}

func newAssetShotCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "shot <project-id> <shot-id>",
		Short: "Generate image, video, or audio media for a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			kind := assets.Kind(strings.ToLower(strings.TrimSpace(kindFlag)))
			if !assets.ValidKind(kind) {
				return fmt.Errorf("invalid kind %q (image, video, audio)", kindFlag)
			}
			shotID := args[1]
			return withAssetCoordinator(ctx, func(cfg *config.Config, store *project.Store, coordinator *assets.Coordinator) error {
				return mutateDocument(cmd, store, id, func(p *project.Project, doc *backbone.Document) error {
					uri, err := coordinator.GenerateShotMedia(cmd.Context(), p.ID, doc.Backbone, shotID, kind)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Shot %s %s: %s\n", shotID, kind, uri)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "image", "Media kind: image, video, or audio")
	return cmd
}

func withAssetCoordinator(ctx *commandContext, fn func(*config.Config, *project.Store, *assets.Coordinator) error) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
		if !cfg.Assets.Enabled {
			return fmt.Errorf("asset generation is disabled; set [assets] enabled = true")
		}
		generator := assets.NewHTTPGenerator(cfg.Assets.BaseURL, cfg.Assets.APIKey)
		return fn(cfg, store, assets.NewCoordinator(generator, store, logger))
	})
}

// mutateDocument loads a project document, applies fn, and persists the
// result only when fn succeeds.
func mutateDocument(cmd *cobra.Command, store *project.Store, id int64, fn func(*project.Project, *backbone.Document) error) error {
	p, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %d not found", id)
	}
	if p.DocumentJSON == "" {
		return fmt.Errorf("project %d has no document yet", id)
	}
	doc, err := backbone.DecodeDocument(strings.NewReader(p.DocumentJSON))
	if err != nil {
		return services.Wrap(services.ErrImportFormat, "", "load project", "", err)
	}
	if err := fn(p, doc); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return err
	}
	p.DocumentJSON = buf.String()
	return store.Update(cmd.Context(), p)
}
