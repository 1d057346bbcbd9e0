package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the websocket progress stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
				bind := strings.TrimSpace(bindFlag)
				if bind == "" {
					bind = cfg.Paths.APIBind
				}

				hub := api.NewProgressHub(logger)
				service := api.NewProjectService(store, cfg, logger, api.WithProgressSink(hub))
				server := api.NewServer(bind, store, service, hub, logger)
				if server == nil {
					return fmt.Errorf("no bind address configured; set [paths] api_bind or pass --bind")
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := server.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (Ctrl-C to stop)\n", server.Addr())
				<-runCtx.Done()
				server.Stop()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (defaults to [paths] api_bind)")
	return cmd
}
