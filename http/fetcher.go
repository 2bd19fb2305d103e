// Package http provides a remote video fetcher backed by HTTP GET requests.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
)

// ErrBodyTooLarge is returned when a response exceeds the configured maximum size.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Fetcher downloads whole remote objects.
// The zero value is not usable; construct with NewFetcher.
type Fetcher struct {
	client   *nethttp.Client
	headers  nethttp.Header
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
// The client's transport is used as is; no response decompression is added.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// WithTimeout bounds each fetch, including reading the body.
// Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes limits the size of a fetched body. Zero disables the limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a Fetcher. By default it uses a client whose transport
// transparently decodes gzip and zstd encoded responses.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &nethttp.Client{
			Transport: gzhttp.Transport(nethttp.DefaultTransport),
		}
	}
	return f
}

// Fetch issues a GET for url and returns the response body.
// The caller must close the returned reader.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	req, err := f.newRequest(ctx, url)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("GET %s: %d bytes: %w", url, resp.ContentLength, ErrBodyTooLarge)
	}

	var r io.Reader = resp.Body
	if f.maxBytes > 0 {
		r = &limitReader{r: resp.Body, remaining: f.maxBytes}
	}
	return &bodyReadCloser{body: resp.Body, reader: r, cancel: cancel}, nil
}

func (f *Fetcher) newRequest(ctx context.Context, url string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

type bodyReadCloser struct {
	body   io.ReadCloser
	reader io.Reader
	cancel context.CancelFunc
}

func (b *bodyReadCloser) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *bodyReadCloser) Close() error {
	err := b.body.Close()
	b.cancel()
	return err
}

// limitReader fails with ErrBodyTooLarge instead of silently truncating.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrBodyTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n + int(l.remaining), ErrBodyTooLarge
	}
	return n, err
}
