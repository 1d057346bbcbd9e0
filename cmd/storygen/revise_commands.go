package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
	"github.com/goboss33/StoryGenAI-sub001/internal/revision"
)

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <project-id>",
		Short: "Propagate upstream entity edits through the scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(newCLIProgressSink(cmd), func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				resp, err := service.Regenerate(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printRevisionOutcome(ctx, cmd, resp)
			})
		},
	}
}

func newAnswerCommand(ctx *commandContext) *cobra.Command {
	var answerPairs []string

	cmd := &cobra.Command{
		Use:   "answer <project-id>",
		Short: "Answer pending clarification questions and resume regeneration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			answers := make(map[string]string, len(answerPairs))
			for _, pair := range answerPairs {
				questionID, answer, ok := strings.Cut(pair, "=")
				if !ok || strings.TrimSpace(questionID) == "" {
					return fmt.Errorf("invalid answer %q (expected question-id=answer)", pair)
				}
				answers[strings.TrimSpace(questionID)] = strings.TrimSpace(answer)
			}
			if len(answers) == 0 {
				return fmt.Errorf("no answers given; use --answer question-id=answer")
			}
			return ctx.withService(newCLIProgressSink(cmd), func(cfg *config.Config, store *project.Store, service *api.ProjectService) error {
				resp, err := service.SubmitAnswers(cmd.Context(), id, answers)
				if err != nil {
					return err
				}
				return printRevisionOutcome(ctx, cmd, resp)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&answerPairs, "answer", "a", nil, "Answer as question-id=answer (repeatable)")
	return cmd
}

func printRevisionOutcome(ctx *commandContext, cmd *cobra.Command, resp api.RegenerateResponse) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	switch revision.State(resp.State) {
	case revision.StateIdle:
		fmt.Fprintln(out, "Regeneration complete; scenes and baseline updated")
	case revision.StateAwaitingAnswers:
		fmt.Fprintln(out, "Clarification required before regeneration:")
		for _, q := range resp.Questions {
			fmt.Fprintf(out, "%s%s: %s\n", statusIndent, q.ID, q.Text)
			for _, option := range q.Options {
				fmt.Fprintf(out, "%s%s- %s\n", statusIndent, statusIndent, option)
			}
		}
		fmt.Fprintln(out, "Answer with: storygen answer <project-id> --answer <question-id>=<answer>")
	default:
		fmt.Fprintf(out, "Regeneration state: %s\n", resp.State)
	}
	return nil
}
