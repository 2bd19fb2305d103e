package vidcache

import (
	"errors"
	"fmt"

	"github.com/meigma/vidcache/cache/disk"
)

var (
	// ErrInvalidReference is returned when a reference is not an absolute URL.
	// No state is touched for an invalid reference.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInFlight is returned by Resolve when another caller is already
	// downloading the same id. It is not a failure: the download is pending and
	// the caller may retry or use Await.
	ErrInFlight = errors.New("download already in flight")

	// ErrTransport wraps failures to fetch the remote object.
	ErrTransport = errors.New("transport failure")

	// ErrStorage wraps failures to persist or measure cached files.
	ErrStorage = errors.New("storage failure")

	// ErrEntryTooLarge is returned when a downloaded entry was evicted by the
	// budget pass that followed its own download.
	ErrEntryTooLarge = fmt.Errorf("%w: entry larger than eviction target", ErrStorage)

	// ErrCacheLocked is returned when another process owns the cache directory.
	ErrCacheLocked = disk.ErrLocked

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("engine closed")
)

// IsRetryable reports whether err is transient: a pending download, a
// transport failure, or a storage failure. Such failures should be presented
// as a retry-capable loading state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInFlight) ||
		errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrStorage)
}
