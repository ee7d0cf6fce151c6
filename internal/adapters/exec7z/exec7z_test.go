package exec7z

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mkowalski/monopack/internal/ports"
)

func TestNew(t *testing.T) {
	t.Run("default tool path", func(t *testing.T) {
		client := New()
		if client.toolPath != "7z" {
			t.Errorf("expected default tool path '7z', got %q", client.toolPath)
		}
	})

	t.Run("custom tool path", func(t *testing.T) {
		client := New(WithToolPath("/usr/local/bin/7zz"))
		if client.toolPath != "/usr/local/bin/7zz" {
			t.Errorf("expected custom path, got %q", client.toolPath)
		}
	})

	t.Run("empty option keeps default", func(t *testing.T) {
		client := New(WithToolPath(""))
		if client.toolPath != "7z" {
			t.Errorf("expected default path for empty option, got %q", client.toolPath)
		}
	})
}

func TestResolveToolPath(t *testing.T) {
	t.Setenv(EnvToolPath, "")

	if got := ResolveToolPath("", ""); got != "7z" {
		t.Errorf("fallback = %q, expected 7z", got)
	}
	if got := ResolveToolPath("", "/cfg/7z"); got != "/cfg/7z" {
		t.Errorf("configured = %q, expected /cfg/7z", got)
	}

	t.Setenv(EnvToolPath, "/env/7z")
	if got := ResolveToolPath("", "/cfg/7z"); got != "/env/7z" {
		t.Errorf("env should beat config, got %q", got)
	}
	if got := ResolveToolPath("/flag/7z", "/cfg/7z"); got != "/flag/7z" {
		t.Errorf("explicit flag should beat env, got %q", got)
	}
}

func TestExtractAllToolNotFound(t *testing.T) {
	client := New(WithToolPath(filepath.Join(t.TempDir(), "no-such-7z")))

	err := client.ExtractAll(context.Background(), "container.pkg", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing tool")
	}

	var extErr *ports.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("error type = %T, expected *ports.ExtractionError", err)
	}
	if extErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, expected -1 for missing tool", extErr.ExitCode)
	}
	if extErr.Err == nil {
		t.Error("expected wrapped lookup error")
	}
}

func TestExtractAllNonzeroExit(t *testing.T) {
	// A fake tool that writes to stderr and exits 2 exercises the
	// exit-code path without needing a real 7z.
	tmpDir := t.TempDir()
	fake := filepath.Join(tmpDir, "fake7z")
	script := "#!/bin/sh\necho 'Can not open the file as archive' >&2\nexit 2\n"
	if err := os.WriteFile(fake, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	client := New(WithToolPath(fake))
	err := client.ExtractAll(context.Background(), "bogus.pkg", tmpDir)
	if err == nil {
		t.Fatal("expected error for nonzero exit")
	}

	var extErr *ports.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("error type = %T, expected *ports.ExtractionError", err)
	}
	if extErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d, expected 2", extErr.ExitCode)
	}
	if extErr.Stderr != "Can not open the file as archive" {
		t.Errorf("Stderr = %q, expected tool diagnostics", extErr.Stderr)
	}
}

func TestExtractAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(WithToolPath("/bin/sleep")) // never actually runs
	err := client.ExtractAll(ctx, "container.pkg", t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, expected context.Canceled", err)
	}
}

func TestAvailable(t *testing.T) {
	if New(WithToolPath(filepath.Join(t.TempDir(), "missing"))).Available() {
		t.Error("expected false for missing binary")
	}
	if !New(WithToolPath("/bin/sh")).Available() {
		t.Error("expected true for /bin/sh")
	}
}

func TestImplementsInterface(t *testing.T) {
	var _ ports.Extractor = (*Client)(nil)
}

// Integration test requires 7z to be installed.

func TestIntegrationExtract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := New()
	if _, err := exec.LookPath(client.toolPath); err != nil {
		t.Skip("7z not installed, skipping integration test")
	}

	// 7z extracts plain zip containers too, which keeps the fixture simple.
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "hello.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	container := filepath.Join(tmpDir, "container.zip")
	zipCmd := exec.Command(client.toolPath, "a", container, filepath.Join(src, "hello.txt"))
	if out, err := zipCmd.CombinedOutput(); err != nil {
		t.Fatalf("creating fixture container failed: %v: %s", err, out)
	}

	dest := filepath.Join(tmpDir, "out")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := client.ExtractAll(context.Background(), container, dest); err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dest, "hello.txt"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("extracted content = %q, expected %q", content, "hello")
	}
}
