// Package exec7z provides an extractor adapter using exec.Command around the
// 7-Zip binary.
package exec7z

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/mkowalski/monopack/internal/ports"
)

// EnvToolPath is the environment variable that overrides the 7z location.
const EnvToolPath = "SEVEN_ZIP"

// stderrTailBytes bounds how much tool output is carried in errors.
const stderrTailBytes = 2048

// Client implements ports.Extractor by invoking 7z.
type Client struct {
	// toolPath is the path to the 7z binary. Defaults to "7z".
	toolPath string
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithToolPath sets a custom path to the 7z binary.
func WithToolPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.toolPath = path
		}
	}
}

// New creates a new exec-based 7z client.
func New(opts ...Option) *Client {
	c := &Client{
		toolPath: "7z",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveToolPath picks the 7z location from, in order of precedence, an
// explicit value (CLI flag), the SEVEN_ZIP environment variable, a configured
// path, and finally "7z" on the search path. Kept out of the pipeline so the
// core never reads configuration or the environment.
func ResolveToolPath(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvToolPath); env != "" {
		return env
	}
	if configured != "" {
		return configured
	}
	return "7z"
}

// ToolPath returns the binary this client invokes.
func (c *Client) ToolPath() string { return c.toolPath }

// Available reports whether the configured binary can be located.
func (c *Client) Available() bool {
	if _, err := exec.LookPath(c.toolPath); err != nil {
		return false
	}
	return true
}

// ExtractAll extracts containerPath into destDir via "7z x". Failures are
// deterministic (wrong or corrupt container format), so there are no retries.
func (c *Client) ExtractAll(ctx context.Context, containerPath, destDir string) error {
	// -y assumes yes on prompts, -bd disables the progress indicator.
	cmd := exec.CommandContext(ctx, c.toolPath, "x", containerPath, "-o"+destDir, "-y", "-bd")

	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Cancellation is the caller's doing, not a tool failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ports.ExtractionError{
				Tool:     c.toolPath,
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(stderr.Bytes(), stderrTailBytes),
			}
		}

		// exec.ErrNotFound or a permission problem locating the binary.
		return &ports.ExtractionError{
			Tool:     c.toolPath,
			ExitCode: -1,
			Err:      err,
		}
	}

	return nil
}

// tail returns the last at-most-n bytes of b as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}

// Compile-time check that Client implements ports.Extractor.
var _ ports.Extractor = (*Client)(nil)
