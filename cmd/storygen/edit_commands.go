package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/revision"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a project's upstream entities",
		Long: "Edit characters, locations, and items after generation. Edits flip the\n" +
			"project to stale; run `storygen regenerate` to propagate them through\n" +
			"the scenes.",
	}
	editCmd.AddCommand(newEditSetCommand(ctx))
	editCmd.AddCommand(newEditRemoveCommand(ctx))
	return editCmd
}

func newEditSetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <project-id> <entity-id> <field> <value>",
		Short: "Set a field on a character, location, or item",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			entityID, field, value := args[1], strings.ToLower(args[2]), args[3]
			return ctx.withService(nil, func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				state, err := service.EditEntities(cmd.Context(), id, func(b *backbone.ProjectBackbone) error {
					return setEntityField(b, entityID, field, value)
				})
				if err != nil {
					return err
				}
				reportEditState(ctx, cmd, state)
				return nil
			})
		},
	}
	return cmd
}

func newEditRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-id> <entity-id>",
		Short: "Remove a character, location, or item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			entityID := args[1]
			return ctx.withService(nil, func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				state, err := service.EditEntities(cmd.Context(), id, func(b *backbone.ProjectBackbone) error {
					return removeEntity(b, entityID)
				})
				if err != nil {
					return err
				}
				reportEditState(ctx, cmd, state)
				return nil
			})
		},
	}
}

func reportEditState(ctx *commandContext, cmd *cobra.Command, state revision.State) {
	if ctx.jsonOutput() {
		_ = writeJSON(cmd, map[string]string{"state": string(state)})
		return
	}
	if state == revision.StateDetected {
		fmt.Fprintln(cmd.OutOrStdout(), "Edit recorded; scenes are now stale. Run `storygen regenerate` to propagate.")
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Edit recorded; scenes still match the baseline.")
}

func setEntityField(b *backbone.ProjectBackbone, entityID, field, value string) error {
	if character, ok := b.CharacterByID(entityID); ok {
		switch field {
		case "name":
			character.Name = value
		case "role":
			character.Role = value
		case "description":
			character.Description = value
		case "appearance":
			character.Appearance = value
		case "personality":
			character.Personality = value
		case "voiceprofile", "voice":
			character.VoiceProfile = value
		default:
			return fmt.Errorf("unknown character field %q", field)
		}
		return nil
	}
	if location, ok := b.LocationByID(entityID); ok {
		switch field {
		case "name":
			location.Name = value
		case "description":
			location.Description = value
		case "mood":
			location.Mood = value
		case "timeofday":
			location.TimeOfDay = value
		default:
			return fmt.Errorf("unknown location field %q", field)
		}
		return nil
	}
	if item, ok := b.ItemByID(entityID); ok {
		switch field {
		case "name":
			item.Name = value
		case "description":
			item.Description = value
		case "significance":
			item.Significance = value
		default:
			return fmt.Errorf("unknown item field %q", field)
		}
		return nil
	}
	return fmt.Errorf("entity %q not found", entityID)
}

func removeEntity(b *backbone.ProjectBackbone, entityID string) error {
	for i, character := range b.Characters {
		if character.ID == entityID {
			b.Characters = append(b.Characters[:i], b.Characters[i+1:]...)
			return nil
		}
	}
	for i, location := range b.Locations {
		if location.ID == entityID {
			b.Locations = append(b.Locations[:i], b.Locations[i+1:]...)
			return nil
		}
	}
	for i, item := range b.Items {
		if item.ID == entityID {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entity %q not found", entityID)
}
