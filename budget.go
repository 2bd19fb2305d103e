package vidcache

import (
	"fmt"
	"log/slog"
	"time"
)

// Stats summarizes the cache.
type Stats struct {
	Entries     int
	SizeBytes   int64
	BudgetBytes int64
	TargetBytes int64
	InFlight    int
	Oldest      time.Time
	Newest      time.Time
}

// EnforceBudget evicts the oldest entries, by creation time, once the cache
// exceeds its budget, stopping as soon as the total is at or below the
// eviction target. Reading an entry does not protect it from eviction.
// It returns the number of bytes freed.
//
// EnforceBudget runs automatically after every successful download.
func (e *Engine) EnforceBudget() (int64, error) {
	e.pruneMu.Lock()
	defer e.pruneMu.Unlock()

	total, err := e.store.SizeBytes()
	if err != nil {
		return 0, fmt.Errorf("%w: measure cache: %w", ErrStorage, err)
	}
	if total <= e.budget {
		return 0, nil
	}

	freed, remaining, err := e.store.Prune(e.TargetBytes(), e.evicted)
	e.logger.Info("video cache over budget",
		slog.Int64("total", total),
		slog.Int64("budget", e.budget),
		slog.Int64("freed", freed),
		slog.Int64("remaining", remaining))
	if err != nil {
		return freed, fmt.Errorf("%w: prune cache: %w", ErrStorage, err)
	}
	return freed, nil
}

// Clear deletes every cached entry and empties the index. Individual
// deletion failures do not stop the pass; they are joined into the returned
// error. Downloads in flight are not interrupted and may repopulate the cache.
func (e *Engine) Clear() error {
	e.pruneMu.Lock()
	defer e.pruneMu.Unlock()

	removed, err := e.store.Clear(nil)

	e.mu.Lock()
	clear(e.cached)
	e.mu.Unlock()

	e.logger.Info("video cache cleared", slog.Int("removed", removed))
	if err != nil {
		return fmt.Errorf("%w: clear cache: %w", ErrStorage, err)
	}
	return nil
}

// SizeBytes returns the total size of cached entries. The directory is
// scanned on every call.
func (e *Engine) SizeBytes() (int64, error) {
	size, err := e.store.SizeBytes()
	if err != nil {
		return 0, fmt.Errorf("%w: measure cache: %w", ErrStorage, err)
	}
	return size, nil
}

// Entries lists cached entries, oldest first.
func (e *Engine) Entries() ([]Entry, error) {
	entries, err := e.store.Entries()
	if err != nil {
		return nil, fmt.Errorf("%w: list cache: %w", ErrStorage, err)
	}
	return entries, nil
}

// Stats returns a snapshot of the cache.
func (e *Engine) Stats() (Stats, error) {
	entries, err := e.Entries()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		Entries:     len(entries),
		BudgetBytes: e.budget,
		TargetBytes: e.TargetBytes(),
	}
	for _, entry := range entries {
		s.SizeBytes += entry.Size
	}
	if len(entries) > 0 {
		s.Oldest = entries[0].CreatedAt
		s.Newest = entries[len(entries)-1].CreatedAt
	}
	e.mu.Lock()
	s.InFlight = len(e.inflight)
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) evicted(entry Entry) {
	e.forget(entry)
	e.logger.Debug("video evicted",
		slog.String("id", entry.ID),
		slog.Int64("bytes", entry.Size),
		slog.Time("created", entry.CreatedAt))
	e.report(ProgressEvent{Stage: StageEvicted, ID: entry.ID, Bytes: entry.Size})
}
