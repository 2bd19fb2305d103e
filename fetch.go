package vidcache

import (
	"context"
	"io"
)

// Fetcher retrieves the raw bytes of a remote object.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, ref string) (io.ReadCloser, error)

// Fetch calls f(ctx, ref).
func (f FetcherFunc) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f(ctx, ref)
}

// readTracker remembers the first non-EOF read error so a failed write can be
// attributed to the transport rather than the disk.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
