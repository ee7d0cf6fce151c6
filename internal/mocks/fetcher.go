package mocks

import (
	"context"
	"os"

	"github.com/mkowalski/monopack/internal/ports"
)

// MockFetcher implements ports.Fetcher without touching the network.
type MockFetcher struct {
	// Payload is written to the destination on success.
	Payload []byte
	// Err, when set, is returned instead of writing anything.
	Err error
	// BlockUntilCancelled simulates a long transfer: Fetch waits for the
	// context and returns its error.
	BlockUntilCancelled bool
	// URLs records every requested URL in order.
	URLs []string
}

// NewMockFetcher creates a mock fetcher serving the given payload.
func NewMockFetcher(payload []byte) *MockFetcher {
	return &MockFetcher{Payload: payload}
}

// Fetch records the URL and writes the canned payload to destPath.
func (m *MockFetcher) Fetch(ctx context.Context, url, destPath string) error {
	m.URLs = append(m.URLs, url)

	if m.BlockUntilCancelled {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(destPath, m.Payload, 0644)
}

// Compile-time check that MockFetcher implements ports.Fetcher.
var _ ports.Fetcher = (*MockFetcher)(nil)
