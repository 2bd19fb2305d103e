package config

import (
	"errors"
	"fmt"
	"log/slog"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validatePrefetch(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCache() error {
	if c.Cache.Dir == "" {
		return errors.New("cache.dir must be set")
	}
	if c.Cache.BudgetMiB <= 0 {
		return fmt.Errorf("cache.budget_mib must be positive (got %d)", c.Cache.BudgetMiB)
	}
	if c.Cache.EvictionTarget <= 0 || c.Cache.EvictionTarget > 1 {
		return fmt.Errorf("cache.eviction_target must be in (0, 1] (got %v)", c.Cache.EvictionTarget)
	}
	return nil
}

func (c *Config) validatePrefetch() error {
	if c.Prefetch.Batch <= 0 {
		return fmt.Errorf("prefetch.batch must be positive (got %d)", c.Prefetch.Batch)
	}
	if c.Prefetch.Concurrency < 0 {
		return fmt.Errorf("prefetch.concurrency must be >= 0 (got %d)", c.Prefetch.Concurrency)
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0 (got %d)", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.MaxBytesMiB < 0 {
		return fmt.Errorf("http.max_bytes_mib must be >= 0 (got %d)", c.HTTP.MaxBytesMiB)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
