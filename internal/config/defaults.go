package config

const (
	defaultConfigPath     = "~/.config/vidcache/config.toml"
	defaultCacheDir       = "~/.cache/vidcache/videos"
	defaultBudgetMiB      = 500
	defaultEvictionTarget = 0.75
	defaultExtension      = ".mp4"
	defaultPrefetchBatch  = 3
	defaultUserAgent      = "vidcache/dev"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Cache: Cache{
			Dir:            defaultCacheDir,
			BudgetMiB:      defaultBudgetMiB,
			EvictionTarget: defaultEvictionTarget,
			Extension:      defaultExtension,
		},
		Prefetch: Prefetch{
			Batch: defaultPrefetchBatch,
		},
		HTTP: HTTP{
			UserAgent: defaultUserAgent,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
