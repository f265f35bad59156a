package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEncoder(); err != nil {
		return err
	}
	c.normalizeBatch()
	c.normalizeNaming()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoder() error {
	var err error
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	c.Encoder.BinDir = strings.TrimSpace(c.Encoder.BinDir)
	if c.Encoder.BinDir != "" {
		if c.Encoder.BinDir, err = expandPath(c.Encoder.BinDir); err != nil {
			return fmt.Errorf("encoder.bin_dir: %w", err)
		}
	}
	if c.Encoder.TimeoutSeconds == 0 {
		c.Encoder.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.MaxConcurrentFiles == 0 {
		c.Batch.MaxConcurrentFiles = defaultMaxConcurrentFiles
	}
	if c.Batch.MaxFileSizeMB == 0 {
		c.Batch.MaxFileSizeMB = defaultMaxFileSizeMB
	}
}

func (c *Config) normalizeNaming() {
	c.Naming.Disambiguator = strings.ToLower(strings.TrimSpace(c.Naming.Disambiguator))
	if c.Naming.Disambiguator == "" {
		c.Naming.Disambiguator = DisambiguatorParen
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("SOUNDCONVERTER_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
