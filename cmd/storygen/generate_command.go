package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/preflight"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
)

// cliProgressSink prints stage lifecycle events as the pipeline runs.
type cliProgressSink struct {
	cmd      *cobra.Command
	colorize bool
}

func newCLIProgressSink(cmd *cobra.Command) *cliProgressSink {
	return &cliProgressSink{cmd: cmd, colorize: shouldColorize(cmd.OutOrStdout())}
}

func (s *cliProgressSink) StageStarted(stageName string) {
	fmt.Fprintln(s.cmd.OutOrStdout(), renderStatusLine(stageName, statusInfo, "running", s.colorize))
}

func (s *cliProgressSink) StageCompleted(stageName string) {
	fmt.Fprintln(s.cmd.OutOrStdout(), renderStatusLine(stageName, statusOK, "done", s.colorize))
}

func (s *cliProgressSink) StageFailed(stageName string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	fmt.Fprintln(s.cmd.OutOrStdout(), renderStatusLine(stageName, statusError, detail, s.colorize))
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "generate <project-id>",
		Short: "Run the full generation pipeline for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(newCLIProgressSink(cmd), func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				if !skipPreflight {
					results := preflight.RunAll(cmd.Context(), cfg)
					if !preflight.AllPassed(results) {
						out := cmd.OutOrStdout()
						colorize := shouldColorize(out)
						for _, result := range results {
							kind := statusOK
							if !result.Passed {
								kind = statusError
							}
							fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
						}
						return fmt.Errorf("preflight failed; fix the reported checks or pass --skip-preflight")
					}
				}

				if err := service.Generate(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %d generated\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip the preflight checks")
	return cmd
}
