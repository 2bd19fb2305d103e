package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	vhttp "github.com/meigma/vidcache/http"
)

func TestFetcherFetch(t *testing.T) {
	data := []byte("video bytes")
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "secret" {
			t.Errorf("X-Token = %q, want %q", got, "secret")
		}
		if got := r.Header.Get("User-Agent"); got != "vidcache-test" {
			t.Errorf("User-Agent = %q, want %q", got, "vidcache-test")
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	f := vhttp.NewFetcher(
		vhttp.WithHeader("X-Token", "secret"),
		vhttp.WithUserAgent("vidcache-test"),
	)
	body, err := f.Fetch(context.Background(), server.URL+"/v/clip.mp4")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Fetch() got %q, want %q", got, data)
	}
}

func TestFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "gone", nethttp.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := vhttp.NewFetcher().Fetch(context.Background(), server.URL)
	var statusErr *vhttp.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Fetch() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("StatusCode = %d, want %d", statusErr.StatusCode, nethttp.StatusNotFound)
	}
}

func TestFetcherMaxBytesContentLength(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{'x'}, 64))
	}))
	t.Cleanup(server.Close)

	_, err := vhttp.NewFetcher(vhttp.WithMaxBytes(16)).Fetch(context.Background(), server.URL)
	if !errors.Is(err, vhttp.ErrBodyTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestFetcherMaxBytesStreaming(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		// Flushing forces chunked encoding so no Content-Length is sent.
		for range 4 {
			_, _ = w.Write(bytes.Repeat([]byte{'x'}, 16))
			w.(nethttp.Flusher).Flush()
		}
	}))
	t.Cleanup(server.Close)

	body, err := vhttp.NewFetcher(vhttp.WithMaxBytes(20)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if !errors.Is(err, vhttp.ErrBodyTooLarge) {
		t.Fatalf("ReadAll() error = %v, want ErrBodyTooLarge", err)
	}
	if len(got) != 20 {
		t.Fatalf("ReadAll() read %d bytes, want 20", len(got))
	}
}

func TestFetcherDecodesGzip(t *testing.T) {
	data := []byte("compressed payload compressed payload")
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = zw.Write(data)
		_ = zw.Close()
	}))
	t.Cleanup(server.Close)

	body, err := vhttp.NewFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Fetch() got %q, want %q", got, data)
	}
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	_, err := vhttp.NewFetcher(vhttp.WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Fetch() error = %v, want context.DeadlineExceeded", err)
	}
}
