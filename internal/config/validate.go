package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Validation failures are fatal
// and surface before any file is touched.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ArchiveDir == "" {
		return errors.New("paths.archive_dir must be set")
	}
	for _, dir := range c.Paths.SourceDirs {
		if dir == c.Paths.ArchiveDir {
			return fmt.Errorf("paths.source_dirs must not include the archive directory %q", dir)
		}
	}
	return nil
}

func (c *Config) validateIngest() error {
	switch c.Ingest.Mode {
	case "copy", "move":
	default:
		return fmt.Errorf("ingest.mode must be \"copy\" or \"move\", got %q", c.Ingest.Mode)
	}
	if c.Ingest.HashMaxAttempts < 1 {
		return errors.New("ingest.hash_max_attempts must be at least 1")
	}
	if c.Ingest.HashRetryDelayMS < 1 {
		return errors.New("ingest.hash_retry_delay_ms must be positive")
	}
	return nil
}

func (c *Config) validateVerify() error {
	if c.Verify.Workers < 1 {
		return errors.New("verify.workers must be at least 1")
	}
	if c.Verify.Workers > 64 {
		return errors.New("verify.workers must be 64 or fewer")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
