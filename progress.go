package vidcache

// ProgressStage identifies what happened to a cache entry.
type ProgressStage int

const (
	// StageDownloading indicates a download has started.
	StageDownloading ProgressStage = iota

	// StageStored indicates a download finished and the file is in the cache.
	StageStored

	// StageFailed indicates a download failed; the id stays uncached.
	StageFailed

	// StageEvicted indicates an entry was removed by the budget pass.
	StageEvicted
)

// String returns the stage name.
func (s ProgressStage) String() string {
	switch s {
	case StageDownloading:
		return "downloading"
	case StageStored:
		return "stored"
	case StageFailed:
		return "failed"
	case StageEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// ProgressEvent reports a change to a cache entry.
type ProgressEvent struct {
	Stage ProgressStage

	// ID is the cache identifier of the entry.
	ID string

	// Ref is the remote reference. Empty for evictions.
	Ref string

	// Bytes is the entry size for StageStored and StageEvicted.
	Bytes int64
}

// ProgressFunc receives progress events.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)

func (e *Engine) report(ev ProgressEvent) {
	if e.progress != nil {
		e.progress(ev)
	}
}
