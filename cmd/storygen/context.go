package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/goboss33/StoryGenAI-sub001/internal/api"
	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/logging"
	"github.com/goboss33/StoryGenAI-sub001/internal/pipeline"
	"github.com/goboss33/StoryGenAI-sub001/internal/project"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, logErr := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if logErr != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger, nil
}

// withStore opens the project store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *project.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := project.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withService opens the store and builds the shared project service.
func (c *commandContext) withService(sink pipeline.ProgressSink, fn func(*config.Config, *project.Store, *api.ProjectService) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withStore(func(cfg *config.Config, store *project.Store) error {
		opts := []api.ServiceOption{}
		if sink != nil {
			opts = append(opts, api.WithProgressSink(sink))
		}
		service := api.NewProjectService(store, cfg, logger, opts...)
		return fn(cfg, store, service)
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
