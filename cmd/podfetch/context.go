package main

import (
	"log/slog"

	"podfetch/internal/config"
	"podfetch/internal/logging"
)

// commandContext caches the loaded configuration and logger so every
// subcommand resolves them the same way.
type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	cfg     *config.Config
	cfgPath string
	log     *slog.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verboseFlag: verboseFlag}
}

// ensureConfig loads the configuration once per process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = path
	return cfg, nil
}

// logger builds the process logger, honoring --verbose over the configured
// level.
func (c *commandContext) logger() (*slog.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if c.verboseFlag != nil && *c.verboseFlag {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		LogDir: cfg.Paths.LogDir,
	})
	if err != nil {
		return nil, err
	}
	c.log = logger
	return logger, nil
}
