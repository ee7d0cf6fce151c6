// Package mocks provides hand-written test doubles for the ports interfaces.
package mocks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mkowalski/monopack/internal/ports"
)

// ExtractCall records one ExtractAll invocation.
type ExtractCall struct {
	ContainerPath string
	DestDir       string
}

// MockExtractor implements ports.Extractor by materializing canned file
// trees, keyed by the container's base name. It stands in for the external
// extraction tool so pipeline tests never shell out.
type MockExtractor struct {
	// Trees maps container base name to the relative paths (and contents)
	// to create in the destination directory.
	Trees map[string]map[string]string
	// Errors maps container base name to a forced error.
	Errors map[string]error
	// Calls records every invocation in order.
	Calls []ExtractCall
}

// NewMockExtractor creates an empty mock extractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Trees:  make(map[string]map[string]string),
		Errors: make(map[string]error),
	}
}

// ExtractAll simulates extraction by writing the canned tree for the
// container into destDir.
func (m *MockExtractor) ExtractAll(ctx context.Context, containerPath, destDir string) error {
	m.Calls = append(m.Calls, ExtractCall{ContainerPath: containerPath, DestDir: destDir})

	if err := ctx.Err(); err != nil {
		return err
	}

	base := filepath.Base(containerPath)
	if err, ok := m.Errors[base]; ok {
		return err
	}

	tree, ok := m.Trees[base]
	if !ok {
		return &ports.ExtractionError{Tool: "mock7z", ExitCode: 2, Stderr: "cannot open " + base + " as archive"}
	}

	for rel, content := range tree {
		full := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time check that MockExtractor implements ports.Extractor.
var _ ports.Extractor = (*MockExtractor)(nil)
