package main

import (
	"fmt"

	"github.com/subtitle-kit/subkit/internal/config"
	"github.com/subtitle-kit/subkit/internal/logging"
)

// commandContext lazily loads the configuration shared by all commands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}
