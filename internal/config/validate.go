package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.TimeoutSeconds < 0 {
		return errors.New("encoder.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.MaxConcurrentFiles < 1 || c.Batch.MaxConcurrentFiles > maxConcurrentFilesLimit {
		return fmt.Errorf("batch.max_concurrent_files must be between 1 and %d", maxConcurrentFilesLimit)
	}
	if c.Batch.MaxFileSizeMB < 0 {
		return errors.New("batch.max_file_size_mb must be positive")
	}
	return nil
}

func (c *Config) validateNaming() error {
	switch c.Naming.Disambiguator {
	case DisambiguatorParen, DisambiguatorUnderscore:
		return nil
	default:
		return fmt.Errorf("naming.disambiguator: unsupported value %q (want %q or %q)", c.Naming.Disambiguator, DisambiguatorParen, DisambiguatorUnderscore)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
