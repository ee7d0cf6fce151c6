package ports

import (
	"context"
	"fmt"
)

// Fetcher abstracts the network download collaborator.
// Production code uses the httpfetch adapter; tests use MockFetcher.
type Fetcher interface {
	// Fetch downloads url to destPath. Cancelling ctx aborts the in-flight
	// transfer; the context error must propagate to the caller untouched so
	// cancellation stays distinguishable from transport failure. No partial
	// file is left behind on error.
	Fetch(ctx context.Context, url, destPath string) error
}

// DownloadError describes a failed download after all attempts were spent.
// StatusCode is zero when the failure never produced an HTTP response.
type DownloadError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s failed after %d attempt(s): HTTP %d", e.URL, e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("download %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
