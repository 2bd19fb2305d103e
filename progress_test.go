package vidcache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/vidcache/internal/testutil"
)

type progressRecorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *progressRecorder) record(ev ProgressEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *progressRecorder) stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Stage.String()+":"+ev.ID)
	}
	return out
}

func TestProgressReportsDownloadsAndEvictions(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher()
	for _, name := range []string{"A", "B", "C", "D"} {
		f.SetSize(videoURL(name), 3)
	}
	var rec progressRecorder
	e, _ := newTestEngine(t, f, WithBudget(10), WithProgress(rec.record))

	resolveInOrder(t, e, videoURL("A"), videoURL("B"), videoURL("C"), videoURL("D"))

	assert.Equal(t, []string{
		"downloading:A", "stored:A",
		"downloading:B", "stored:B",
		"downloading:C", "stored:C",
		"downloading:D", "stored:D",
		"evicted:A", "evicted:B",
	}, rec.stages())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, videoURL("D"), rec.events[7].Ref)
	assert.Equal(t, int64(3), rec.events[7].Bytes)
	assert.Empty(t, rec.events[8].Ref)
	assert.Equal(t, int64(3), rec.events[8].Bytes)
}

func TestProgressReportsFailure(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher()
	f.Fail(videoURL("bad"), errors.New("boom"))
	var rec progressRecorder
	e, _ := newTestEngine(t, f, WithProgress(rec.record))

	_, err := e.Resolve(context.Background(), videoURL("bad"))
	require.Error(t, err)
	assert.Equal(t, []string{"downloading:bad", "failed:bad"}, rec.stages())
}

func TestProgressCacheHitIsSilent(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher()
	f.Set(videoURL("hit"), []byte("x"))
	var rec progressRecorder
	e, _ := newTestEngine(t, f, WithProgress(rec.record))

	resolveInOrder(t, e, videoURL("hit"), videoURL("hit"))
	assert.Equal(t, []string{"downloading:hit", "stored:hit"}, rec.stages())
}
