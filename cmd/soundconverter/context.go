package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"soundconverter/internal/config"
	"soundconverter/internal/deps"
	"soundconverter/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds the process logger. Logs always go to w (stderr) so stdout
// stays reserved for events.
func (c *commandContext) logger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	opts := logging.Options{Level: "info", Format: "console", Writer: w}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		if cfg.Logging.File {
			opts.FilePath = cfg.LogFilePath()
		}
	}
	return logging.New(opts)
}

func depsOptions(cfg *config.Config) deps.Options {
	if cfg == nil {
		return deps.Options{}
	}
	return deps.Options{
		ConfigBinary:  cfg.Encoder.Binary,
		ConfigFFprobe: cfg.Encoder.FFprobeBinary,
		BinDir:        cfg.Encoder.BinDir,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
