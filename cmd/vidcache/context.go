package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/meigma/vidcache"
	vhttp "github.com/meigma/vidcache/http"
	"github.com/meigma/vidcache/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
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
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withEngine opens the cache described by the configuration, runs fn, and
// closes the engine.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(*vidcache.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	var fetchOpts []vhttp.Option
	if cfg.HTTP.UserAgent != "" {
		fetchOpts = append(fetchOpts, vhttp.WithUserAgent(cfg.HTTP.UserAgent))
	}
	if t := cfg.Timeout(); t > 0 {
		fetchOpts = append(fetchOpts, vhttp.WithTimeout(t))
	}
	if n := cfg.MaxBytes(); n > 0 {
		fetchOpts = append(fetchOpts, vhttp.WithMaxBytes(n))
	}

	engine, err := vidcache.New(cfg.Cache.Dir,
		vidcache.WithFetcher(vhttp.NewFetcher(fetchOpts...)),
		vidcache.WithBudget(cfg.BudgetBytes()),
		vidcache.WithEvictionTarget(cfg.Cache.EvictionTarget),
		vidcache.WithExtension(cfg.Cache.Extension),
		vidcache.WithPrefetchBatch(cfg.Prefetch.Batch),
		vidcache.WithPrefetchConcurrency(cfg.Prefetch.Concurrency),
		vidcache.WithLogger(newLogger(cfg, cmd.ErrOrStderr())),
	)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(engine)
}
