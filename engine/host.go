package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Host performs the side effects actions request outside the render tree.
type Host interface {
	Navigate(ctx context.Context, url string) error
	WriteClipboard(ctx context.Context, text string) error
}

// Fetcher retrieves remote source text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// nopHost accepts every request and does nothing.
type nopHost struct{}

func (nopHost) Navigate(context.Context, string) error       { return nil }
func (nopHost) WriteClipboard(context.Context, string) error { return nil }

// DefaultFetchLimit bounds the size of a fetched source.
const DefaultFetchLimit = 8 << 20

// HTTPFetcher fetches source text with an HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
	// Limit is the maximum number of bytes read; zero means
	// [DefaultFetchLimit].
	Limit int64
}

// NewHTTPFetcher returns a fetcher whose requests time out after timeout.
// A zero timeout disables the deadline.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}

	return string(data), nil
}
