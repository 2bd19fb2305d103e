package vidcache

import (
	"log/slog"
	"os"
)

const (
	// DefaultBudget is the default cache size limit.
	DefaultBudget int64 = 500 << 20

	// DefaultEvictionTarget is the fraction of the budget eviction stops at.
	DefaultEvictionTarget = 0.75

	// DefaultPrefetchBatch is the number of upcoming references Prefetch considers.
	DefaultPrefetchBatch = 3
)

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the remote fetcher. Defaults to an HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithBudget sets the maximum total size of cached entries in bytes.
// Exceeding it after a download triggers eviction. Must be > 0.
func WithBudget(n int64) Option {
	return func(e *Engine) {
		e.budget = n
	}
}

// WithEvictionTarget sets the fraction of the budget that eviction reduces the
// cache to. Must be in (0, 1]. Defaults to 0.75.
func WithEvictionTarget(fraction float64) Option {
	return func(e *Engine) {
		e.target = fraction
	}
}

// WithPrefetchBatch sets how many leading references Prefetch considers.
// Must be > 0. Defaults to 3.
func WithPrefetchBatch(n int) Option {
	return func(e *Engine) {
		e.batch = n
	}
}

// WithPrefetchConcurrency caps the number of concurrent prefetch downloads
// started by a single Prefetch call. Zero uses the batch size.
func WithPrefetchConcurrency(workers int) Option {
	return func(e *Engine) {
		e.prefetchWorkers = workers
	}
}

// WithExtension sets the file extension of cached entries. Defaults to ".mp4".
func WithExtension(ext string) Option {
	return func(e *Engine) {
		e.ext = ext
	}
}

// WithDirPerm sets the permissions used when creating the cache directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(e *Engine) {
		e.dirPerm = mode
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProgress sets a callback that receives download and eviction events.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}
