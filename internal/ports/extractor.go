// Package ports defines interfaces (contracts) for external dependencies.
// These enable dependency injection and testability via mock implementations.
package ports

import (
	"context"
	"fmt"
)

// Extractor abstracts the external container-extraction capability.
// Production code uses the exec7z adapter; tests use MockExtractor.
type Extractor interface {
	// ExtractAll extracts every entry of the container at containerPath into
	// destDir, preserving the container's relative structure. destDir must
	// already exist. Extraction failures are deterministic (corrupt or
	// foreign input), so implementations must not retry.
	ExtractAll(ctx context.Context, containerPath, destDir string) error
}

// ExtractionError describes a failed extraction: either the tool could not
// be located (Err holds the lookup error, ExitCode is -1) or it ran and
// exited nonzero (Stderr holds a bounded tail of its diagnostics).
type ExtractionError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction tool %q unavailable: %v", e.Tool, e.Err)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
