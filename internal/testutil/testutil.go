// Package testutil provides fakes shared by the vidcache tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

// ErrNotFound is returned by MockFetcher for unknown references.
var ErrNotFound = errors.New("mock object not found")

// MockFetcher serves in-memory objects and records every fetch.
// It is safe for concurrent use.
type MockFetcher struct {
	mu      sync.Mutex
	objects map[string][]byte
	errs    map[string]error
	partial map[string]error
	stalls  map[string]*stall
	calls   map[string]int
	gate    chan struct{}
	started chan string
}

// NewMockFetcher returns an empty fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		objects: make(map[string][]byte),
		errs:    make(map[string]error),
		partial: make(map[string]error),
		stalls:  make(map[string]*stall),
		calls:   make(map[string]int),
		started: make(chan string, 256),
	}
}

// Set serves data for ref.
func (f *MockFetcher) Set(ref string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[ref] = data
	delete(f.errs, ref)
	delete(f.partial, ref)
}

// SetSize serves size bytes of filler for ref.
func (f *MockFetcher) SetSize(ref string, size int) {
	f.Set(ref, bytes.Repeat([]byte{'v'}, size))
}

// Fail makes fetches of ref fail with err before any bytes are returned.
func (f *MockFetcher) Fail(ref string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[ref] = err
}

// FailMidStream makes reads of ref return its data and then err.
func (f *MockFetcher) FailMidStream(ref string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partial[ref] = err
}

// Stall makes the body of ref pause after its first byte. reached is closed
// once the reader is waiting; release lets the rest of the body through.
func (f *MockFetcher) Stall(ref string) (reached <-chan struct{}, release func()) {
	st := &stall{reached: make(chan struct{}), gate: make(chan struct{})}
	f.mu.Lock()
	f.stalls[ref] = st
	f.mu.Unlock()

	var once sync.Once
	return st.reached, func() { once.Do(func() { close(st.gate) }) }
}

// Block makes subsequent fetches wait until the returned release func is
// called or their context ends.
func (f *MockFetcher) Block() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Started delivers the reference of each fetch as it begins.
func (f *MockFetcher) Started() <-chan string {
	return f.started
}

// Fetch implements vidcache.Fetcher.
func (f *MockFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls[ref]++
	gate := f.gate
	f.mu.Unlock()

	select {
	case f.started <- ref:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[ref]; ok {
		return nil, err
	}
	data, ok := f.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	var r io.Reader = bytes.NewReader(data)
	if st, ok := f.stalls[ref]; ok && len(data) > 1 {
		r = io.MultiReader(bytes.NewReader(data[:1]), &stallReader{st: st, r: bytes.NewReader(data[1:])})
	}
	if err, ok := f.partial[ref]; ok {
		r = io.MultiReader(r, &errReader{err: err})
	}
	return io.NopCloser(r), nil
}

// Calls returns the number of fetches of ref.
func (f *MockFetcher) Calls(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

// Total returns the number of fetches across all references.
func (f *MockFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Fetched returns the sorted references fetched at least once.
func (f *MockFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make([]string, 0, len(f.calls))
	for ref := range f.calls {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

type stall struct {
	reached chan struct{}
	gate    chan struct{}
	once    sync.Once
}

type stallReader struct {
	st *stall
	r  io.Reader
}

func (s *stallReader) Read(p []byte) (int, error) {
	s.st.once.Do(func() { close(s.st.reached) })
	<-s.st.gate
	return s.r.Read(p)
}
