package vidcache

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Prefetch starts background downloads for the leading references of refs,
// typically the next items of a scrolling feed.
//
// Only the first batch references are considered (see WithPrefetchBatch).
// Invalid, cached and in-flight references are skipped. Prefetch returns
// immediately with the number of downloads it started; failures are logged and
// otherwise ignored. Use Wait to block until they finish.
func (e *Engine) Prefetch(refs ...string) int {
	if len(refs) > e.batch {
		refs = refs[:e.batch]
	}

	selected := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id, err := ID(ref)
		if err != nil {
			e.logger.Debug("prefetch skipped invalid reference",
				slog.String("ref", ref),
				slog.Any("error", err))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := e.store.Stat(id); ok {
			e.markCached(id)
			continue
		}
		if e.inFlight(id) {
			continue
		}
		selected = append(selected, ref)
	}
	if len(selected) == 0 {
		return 0
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0
	}
	e.bg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.bg.Done()
		var g errgroup.Group
		g.SetLimit(e.prefetchWorkers)
		for _, ref := range selected {
			g.Go(func() error {
				_, err := e.Resolve(context.Background(), ref)
				if err != nil && !errors.Is(err, ErrInFlight) {
					e.logger.Debug("prefetch failed",
						slog.String("ref", ref),
						slog.Any("error", err))
				}
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // prefetch failures are best effort
	}()

	e.logger.Debug("prefetch started", slog.Int("count", len(selected)))
	return len(selected)
}

// Wait blocks until all prefetches started so far have finished.
func (e *Engine) Wait() {
	e.bg.Wait()
}

func (e *Engine) inFlight(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[id]
	return ok
}
