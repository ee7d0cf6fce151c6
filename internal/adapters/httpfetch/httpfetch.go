// Package httpfetch provides a fetcher adapter using net/http with bounded
// retries.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mkowalski/monopack/internal/ports"
)

// userAgent is sent on every request. The vendor's CDN rejects bare clients.
const userAgent = "Mozilla/5.0 (compatible; monopack/1.0)"

// defaultMaxRetries is the number of retry attempts after the first failure.
const defaultMaxRetries = 2

// Client implements ports.Fetcher over HTTP.
type Client struct {
	http       *http.Client
	maxRetries uint64
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithMaxRetries sets how many times a failed transfer is retried before the
// error is surfaced. Retries are never infinite.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a new HTTP fetcher.
func New(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 5 * time.Minute},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url to destPath. Transient failures (transport errors and
// 5xx responses) are retried from scratch with exponential backoff; 4xx
// responses are permanent. Context cancellation aborts the in-flight transfer
// and propagates the context error untouched. No partial file survives.
func (c *Client) Fetch(ctx context.Context, url, destPath string) error {
	attempts := 0
	lastStatus := 0

	op := func() error {
		attempts++
		status, err := c.fetchOnce(ctx, url, destPath)
		lastStatus = status
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	err := backoff.Retry(op, bo)
	if err == nil {
		return nil
	}

	// Cancellation must stay distinguishable from transport failure.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return &ports.DownloadError{
		URL:        url,
		StatusCode: lastStatus,
		Attempts:   attempts,
		Err:        err,
	}
}

// fetchOnce performs a single transfer attempt. It returns the HTTP status
// code when a response was received, and wraps non-retryable failures in
// backoff.Permanent.
func (c *Client) fetchOnce(ctx context.Context, url, destPath string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, backoff.Permanent(ctx.Err())
		}
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		// Client errors will not heal on retry; the version simply has no
		// published installer at this URL.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resp.StatusCode, backoff.Permanent(err)
		}
		return resp.StatusCode, err
	}

	if err := writeBody(resp.Body, destPath); err != nil {
		if ctx.Err() != nil {
			return resp.StatusCode, backoff.Permanent(ctx.Err())
		}
		return resp.StatusCode, err
	}

	return resp.StatusCode, nil
}

// writeBody streams the response to destPath, removing the file on failure so
// a clean retry-from-scratch is always possible.
func writeBody(body io.Reader, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return backoff.Permanent(err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

// Compile-time check that Client implements ports.Fetcher.
var _ ports.Fetcher = (*Client)(nil)
