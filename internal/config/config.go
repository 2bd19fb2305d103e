// Package config loads the vidcache CLI configuration from TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Cache contains cache directory and budget configuration.
type Cache struct {
	Dir            string  `toml:"dir"`
	BudgetMiB      int64   `toml:"budget_mib"`
	EvictionTarget float64 `toml:"eviction_target"`
	Extension      string  `toml:"extension"`
}

// Prefetch contains prefetch configuration.
type Prefetch struct {
	Batch       int `toml:"batch"`
	Concurrency int `toml:"concurrency"`
}

// HTTP contains configuration for the remote fetcher.
type HTTP struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBytesMiB    int64  `toml:"max_bytes_mib"`
	UserAgent      string `toml:"user_agent"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full CLI configuration.
type Config struct {
	Cache    Cache    `toml:"cache"`
	Prefetch Prefetch `toml:"prefetch"`
	HTTP     HTTP     `toml:"http"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults are used. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// BudgetBytes returns the cache budget in bytes.
func (c *Config) BudgetBytes() int64 {
	return c.Cache.BudgetMiB << 20
}

// MaxBytes returns the per-download size limit in bytes (0 = unlimited).
func (c *Config) MaxBytes() int64 {
	return c.HTTP.MaxBytesMiB << 20
}

// Timeout returns the per-download timeout (0 = none).
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func (c *Config) normalize() error {
	dir, err := ExpandPath(strings.TrimSpace(c.Cache.Dir))
	if err != nil {
		return err
	}
	c.Cache.Dir = dir

	c.Cache.Extension = strings.TrimSpace(c.Cache.Extension)
	if c.Cache.Extension != "" && !strings.HasPrefix(c.Cache.Extension, ".") {
		c.Cache.Extension = "." + c.Cache.Extension
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
