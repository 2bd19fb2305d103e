// Package vidcache provides an on-device cache for remote video files.
//
// An [Engine] owns a local directory. Presentation code asks it for a local,
// playable path for a remote reference; the engine returns a cached file
// immediately or downloads it first. Concurrent requests for the same video
// share one download, upcoming feed items can be prefetched in the background,
// and a byte budget is enforced by evicting the oldest entries.
//
// # Quick Start
//
//	e, err := vidcache.New(filepath.Join(cacheRoot, "videos"),
//	    vidcache.WithBudget(500<<20),
//	    vidcache.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	path, err := e.Resolve(ctx, "https://cdn.example.com/v/abc123.mp4")
//	switch {
//	case errors.Is(err, vidcache.ErrInFlight):
//	    // Another caller is downloading it; retry or use Await.
//	case err != nil:
//	    // Transient; show a retry-capable loading state.
//	}
//
// Prefetch the next items of a feed without blocking:
//
//	e.Prefetch(next...)
//
// # Identifiers
//
// Each reference maps to a stable id (see [ID]) which names the cached file
// {dir}/{id}.mp4. Resolving a reference whose file exists never touches the
// network.
//
// # Eviction
//
// After each download the engine sums the sizes of its entries. If the total
// exceeds the budget, entries are deleted oldest first by creation time until
// the total is at or below 75% of the budget. Eviction order is insertion
// order, not access order: reading an old entry does not protect it.
package vidcache
