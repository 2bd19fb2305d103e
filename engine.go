package vidcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/meigma/vidcache/cache/disk"
	vhttp "github.com/meigma/vidcache/http"
)

// Entry describes one cached video.
type Entry = disk.Entry

// Engine downloads remote videos into a local directory it owns.
//
// The engine keeps an index of cached ids and the set of ids currently being
// downloaded. Both are guarded by mu; network and disk I/O happen outside it.
// At most one download per id runs at a time. After every successful download
// the engine enforces its byte budget by deleting the oldest entries, by
// creation time, until the cache is at or below the eviction target.
//
// An Engine is safe for concurrent use.
type Engine struct {
	store           *disk.Store
	fetcher         Fetcher
	logger          *slog.Logger
	progress        ProgressFunc
	budget          int64
	target          float64
	batch           int
	prefetchWorkers int
	ext             string
	dirPerm         os.FileMode

	mu       sync.Mutex
	cached   map[string]struct{}
	inflight map[string]chan struct{} // closed once the attempt's outcome is applied
	closed   bool

	pruneMu sync.Mutex     // serializes budget passes and clears
	bg      sync.WaitGroup // background prefetches
}

// New creates an engine that owns dir, creating it if needed.
// The index is loaded from the entries already present in dir.
func New(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.New(slog.DiscardHandler),
		budget: DefaultBudget,
		target: DefaultEvictionTarget,
		batch:  DefaultPrefetchBatch,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.budget <= 0 {
		return nil, errors.New("budget must be > 0")
	}
	if e.target <= 0 || e.target > 1 {
		return nil, fmt.Errorf("eviction target %v must be in (0, 1]", e.target)
	}
	if e.batch <= 0 {
		return nil, errors.New("prefetch batch must be > 0")
	}
	if e.prefetchWorkers < 0 {
		return nil, errors.New("prefetch concurrency must be >= 0")
	}
	if e.prefetchWorkers == 0 {
		e.prefetchWorkers = e.batch
	}
	if e.fetcher == nil {
		e.fetcher = vhttp.NewFetcher()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	var storeOpts []disk.Option
	if e.ext != "" {
		storeOpts = append(storeOpts, disk.WithExtension(e.ext))
	}
	if e.dirPerm != 0 {
		storeOpts = append(storeOpts, disk.WithDirPerm(e.dirPerm))
	}
	store, err := disk.New(dir, storeOpts...)
	if err != nil {
		return nil, err
	}
	e.store = store

	entries, err := store.Entries()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load cache index: %w", err)
	}
	e.cached = make(map[string]struct{}, len(entries))
	e.inflight = make(map[string]chan struct{})
	for _, entry := range entries {
		e.cached[entry.ID] = struct{}{}
	}
	e.logger.Info("video cache opened",
		slog.String("dir", dir),
		slog.Int("entries", len(entries)),
		slog.Int64("budget", e.budget))
	return e, nil
}

// Dir returns the cache directory.
func (e *Engine) Dir() string {
	return e.store.Dir()
}

// Budget returns the configured byte budget.
func (e *Engine) Budget() int64 {
	return e.budget
}

// TargetBytes returns the size eviction reduces the cache to.
func (e *Engine) TargetBytes() int64 {
	return int64(float64(e.budget) * e.target)
}

// Resolve returns the local path of the video identified by ref, downloading
// it first if it is not cached.
//
// A cached entry is returned without any network access. If another caller is
// already downloading the same id, Resolve returns ErrInFlight immediately
// rather than starting a second download. Download failures are wrapped in
// ErrTransport or ErrStorage; the id stays uncached so a later call retries.
// ctx bounds the fetch.
func (e *Engine) Resolve(ctx context.Context, ref string) (string, error) {
	id, err := ID(ref)
	if err != nil {
		return "", err
	}
	if entry, ok := e.store.Stat(id); ok {
		e.markCached(id)
		return entry.Path, nil
	}

	done, err := e.begin(id)
	if err != nil {
		return "", err
	}

	// Another caller may have finished this id between the stat and begin.
	if entry, ok := e.store.Stat(id); ok {
		e.finish(id, done, true)
		return entry.Path, nil
	}

	e.report(ProgressEvent{Stage: StageDownloading, ID: id, Ref: ref})
	entry, err := e.download(ctx, ref, id)
	if err == nil {
		err = e.commit(id, done)
	} else {
		e.finish(id, done, false)
	}
	if err != nil {
		e.report(ProgressEvent{Stage: StageFailed, ID: id, Ref: ref})
		e.logger.Warn("video download failed",
			slog.String("id", id),
			slog.String("ref", ref),
			slog.Any("error", err))
		return "", err
	}
	e.logger.Debug("video cached",
		slog.String("id", id),
		slog.Int64("bytes", entry.Size))
	e.report(ProgressEvent{Stage: StageStored, ID: id, Ref: ref, Bytes: entry.Size})

	if _, err := e.EnforceBudget(); err != nil {
		e.logger.Warn("cache budget enforcement failed", slog.Any("error", err))
	}
	if _, ok := e.store.Stat(id); !ok {
		if entry.Size > e.TargetBytes() {
			return "", fmt.Errorf("%w: %s is %d bytes, target %d", ErrEntryTooLarge, id, entry.Size, e.TargetBytes())
		}
		return "", fmt.Errorf("%w: %s was removed before it could be returned", ErrStorage, id)
	}
	return entry.Path, nil
}

// Await is like Resolve but waits for an in-flight download of the same id
// instead of returning ErrInFlight. If that download fails, Await starts a
// new attempt itself.
func (e *Engine) Await(ctx context.Context, ref string) (string, error) {
	for {
		path, err := e.Resolve(ctx, ref)
		if !errors.Is(err, ErrInFlight) {
			return path, err
		}
		id, _ := ID(ref) //nolint:errcheck // Resolve already validated ref
		e.mu.Lock()
		done, ok := e.inflight[id]
		e.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Lookup returns the local path for ref if it is cached. It never fetches.
func (e *Engine) Lookup(ref string) (string, bool) {
	id, err := ID(ref)
	if err != nil {
		return "", false
	}
	entry, ok := e.store.Stat(id)
	if !ok {
		e.mu.Lock()
		delete(e.cached, id)
		e.mu.Unlock()
		return "", false
	}
	e.markCached(id)
	return entry.Path, true
}

// Loading reports whether a download for ref is in flight.
func (e *Engine) Loading(ref string) bool {
	id, err := ID(ref)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[id]
	return ok
}

// CachedIDs returns the sorted ids in the index.
func (e *Engine) CachedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.cached))
}

// Close waits for background prefetches and releases the cache directory.
// Cached files stay on disk.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.bg.Wait()
	return e.store.Close()
}

func (e *Engine) begin(id string) (chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if _, busy := e.inflight[id]; busy {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, id)
	}
	done := make(chan struct{})
	e.inflight[id] = done
	return done, nil
}

// commit indexes a freshly written entry. It runs under pruneMu so a
// concurrent Clear either removes the file before the check or sees the id in
// the index; an id whose file is already gone is not indexed.
func (e *Engine) commit(id string, done chan struct{}) error {
	e.pruneMu.Lock()
	defer e.pruneMu.Unlock()
	if _, ok := e.store.Stat(id); !ok {
		e.finish(id, done, false)
		return fmt.Errorf("%w: %s was removed before it was indexed", ErrStorage, id)
	}
	e.finish(id, done, true)
	return nil
}

// finish applies the outcome of a download attempt and clears its in-flight mark.
func (e *Engine) finish(id string, done chan struct{}, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ok {
		e.cached[id] = struct{}{}
	}
	delete(e.inflight, id)
	close(done)
}

func (e *Engine) markCached(id string) {
	e.mu.Lock()
	e.cached[id] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) forget(entry Entry) {
	e.mu.Lock()
	delete(e.cached, entry.ID)
	e.mu.Unlock()
}

func (e *Engine) download(ctx context.Context, ref, id string) (Entry, error) {
	body, err := e.fetcher.Fetch(ctx, ref)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: fetch %s: %w", ErrTransport, ref, err)
	}
	defer body.Close()

	tr := &readTracker{r: body}
	entry, err := e.store.Put(id, tr)
	if err != nil {
		if tr.err != nil {
			return Entry{}, fmt.Errorf("%w: read %s: %w", ErrTransport, ref, tr.err)
		}
		return Entry{}, fmt.Errorf("%w: write %s: %w", ErrStorage, id, err)
	}
	return entry, nil
}
