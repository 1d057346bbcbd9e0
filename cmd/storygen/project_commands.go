package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/preflight"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var premise string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(nil, func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				summary, err := service.Create(cmd.Context(), args[0], premise)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, summary)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s)\n", summary.ID, summary.Slug)
				if strings.TrimSpace(premise) == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Set a premise before generating: storygen generate requires one.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&premise, "premise", "p", "", "Story premise the pipeline generates from")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(nil, func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				var statuses []project.Status
				for _, value := range listStatuses {
					status, ok := project.ParseStatus(value)
					if !ok {
						return fmt.Errorf("unknown status %q (known: %s)", value, knownStatuses())
					}
					statuses = append(statuses, status)
				}

				summaries, err := service.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ProjectListResponse{Projects: summaries})
				}
				if len(summaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}

				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.Name,
						s.Status,
						s.RevisionState,
						s.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				out := renderTable(
					[]tableColumn{
						{Title: "ID", Numeric: true},
						{Title: "Name", MaxWidth: 40},
						{Title: "Status"},
						{Title: "Revision"},
						{Title: "Updated"},
					},
					rows,
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var withDocument bool

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(nil, func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				detail, err := service.Describe(cmd.Context(), id, withDocument || ctx.jsonOutput())
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("project %d not found", id)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ProjectResponse{Project: *detail})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(detail.Name, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Status", statusKindForProject(detail.Status), detail.Status, colorize))
				if detail.RevisionState != "" {
					fmt.Fprintln(out, renderStatusLine("Revision", statusInfo, detail.RevisionState, colorize))
				}
				if detail.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Last error", statusError, detail.ErrorMessage, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Characters", statusInfo, strconv.Itoa(detail.Characters), colorize))
				fmt.Fprintln(out, renderStatusLine("Locations", statusInfo, strconv.Itoa(detail.Locations), colorize))
				fmt.Fprintln(out, renderStatusLine("Items", statusInfo, strconv.Itoa(detail.Items), colorize))
				fmt.Fprintln(out, renderStatusLine("Scenes", statusInfo, strconv.Itoa(detail.Scenes), colorize))
				fmt.Fprintln(out, renderStatusLine("Shots", statusInfo, strconv.Itoa(detail.Shots), colorize))
				for _, q := range detail.Questions {
					fmt.Fprintf(out, "%sQuestion %s: %s\n", statusIndent, q.ID, q.Text)
					for _, option := range q.Options {
						fmt.Fprintf(out, "%s%s- %s\n", statusIndent, statusIndent, option)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withDocument, "document", false, "Include the full document JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health and preflight results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
				summary, err := store.Summary(cmd.Context())
				if err != nil {
					return err
				}
				results := preflight.RunAll(cmd.Context(), cfg)

				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"dbPath":    store.Path(),
						"projects":  summary,
						"preflight": results,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Projects", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, store.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, strconv.Itoa(summary.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Ready", statusOK, strconv.Itoa(summary.Ready), colorize))
				fmt.Fprintln(out, renderStatusLine("Generating", statusInfo, strconv.Itoa(summary.Generating), colorize))
				fmt.Fprintln(out, renderStatusLine("Stale", statusWarn, strconv.Itoa(summary.Stale), colorize))
				fmt.Fprintln(out, renderStatusLine("Failed", statusError, strconv.Itoa(summary.Failed), colorize))

				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, result := range results {
					kind := statusError
					if result.Passed {
						kind = statusOK
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				return nil
			})
		},
	}
}

func statusKindForProject(status string) statusKind {
	switch project.Status(status) {
	case project.StatusReady:
		return statusOK
	case project.StatusStale:
		return statusWarn
	case project.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func parseProjectID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", value)
	}
	return id, nil
}

func knownStatuses() string {
	statuses := project.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
