// Package pipeline sequences resolve, download, nested extraction, asset
// location, and repackaging for a single version, owning one scoped working
// area per run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkowalski/monopack/internal/locate"
	"github.com/mkowalski/monopack/internal/manifest"
	"github.com/mkowalski/monopack/internal/ports"
	"github.com/mkowalski/monopack/internal/unityver"
)

// Stage names the pipeline step a failure belongs to.
type Stage string

const (
	StageResolving           Stage = "resolving"
	StageDownloading         Stage = "downloading"
	StageExtractingInstaller Stage = "extracting installer"
	StageExtractingPayload   Stage = "extracting payload"
	StageLocating            Stage = "locating assemblies"
	StageRepackaging         Stage = "repackaging"
)

// Error tags a stage failure. The cause is propagated untouched; attaching
// the stage name is the orchestrator's only contribution.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a single run.
type Options struct {
	// OutputPath is where the flattened archive is written. Empty means
	// <short version>.zip in the current directory.
	OutputPath string
	// Overwrite allows replacing an existing output archive.
	Overwrite bool
	// WorkDir hosts the scoped working area. Empty means the system temp
	// directory.
	WorkDir string
	// ManifestDir, when set, records the produced archive in that
	// directory's manifest.
	ManifestDir string
}

// Result describes a successful run.
type Result struct {
	Version    unityver.Version
	URL        string
	OutputPath string
	SizeBytes  int64
	FileCount  int
	SHA256     string
	Assemblies []string
}

// Pipeline runs the fetch-and-repack flow with injected collaborators.
type Pipeline struct {
	fetcher   ports.Fetcher
	extractor ports.Extractor
	archiver  ports.Archiver

	// logf narrates stage progress. Never nil after New.
	logf func(format string, args ...any)
}

// Option is a functional option for configuring Pipeline.
type Option func(*Pipeline)

// WithLogf sets a progress logger.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(p *Pipeline) {
		if logf != nil {
			p.logf = logf
		}
	}
}

// New creates a pipeline from its three collaborators.
func New(fetcher ports.Fetcher, extractor ports.Extractor, archiver ports.Archiver, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		archiver:  archiver,
		logf:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline for one version string. The working area is
// torn down on every exit path; the output archive is only created after the
// complete asset set has been assembled and validated.
func (p *Pipeline) Run(ctx context.Context, rawVersion string, opts Options) (*Result, error) {
	target, err := unityver.Resolve(rawVersion)
	if err != nil {
		return nil, &Error{Stage: StageResolving, Err: err}
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = target.Version.ShortString() + ".zip"
	}

	// Refusing an occupied destination before any network I/O avoids a
	// wasted transfer; the archiver still guards atomically at write time.
	if !opts.Overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return nil, &Error{Stage: StageRepackaging, Err: fmt.Errorf("%w: %s", ports.ErrOutputExists, outputPath)}
		}
	}

	work, err := os.MkdirTemp(opts.WorkDir, "monopack-*")
	if err != nil {
		return nil, &Error{Stage: StageDownloading, Err: fmt.Errorf("creating working area: %w", err)}
	}
	defer func() { _ = os.RemoveAll(work) }()

	p.logf("working area %s", work)

	installerPath := filepath.Join(work, target.Installer)
	pkgDir := filepath.Join(work, "pkg")
	payloadDir := filepath.Join(work, "payload")
	for _, dir := range []string{pkgDir, payloadDir} {
		if err := os.Mkdir(dir, 0755); err != nil {
			return nil, &Error{Stage: StageDownloading, Err: err}
		}
	}

	p.logf("downloading %s", target.URL)
	if err := p.fetcher.Fetch(ctx, target.URL, installerPath); err != nil {
		return nil, &Error{Stage: StageDownloading, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &Error{Stage: StageDownloading, Err: err}
	}

	p.logf("extracting installer %s", target.Installer)
	if err := p.extractor.ExtractAll(ctx, installerPath, pkgDir); err != nil {
		return nil, &Error{Stage: StageExtractingInstaller, Err: err}
	}

	payloads, err := locate.Payloads(pkgDir, target)
	if err != nil {
		return nil, &Error{Stage: StageExtractingPayload, Err: err}
	}

	for _, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Stage: StageExtractingPayload, Err: err}
		}
		p.logf("extracting payload %s", filepath.Base(payload))
		if err := p.extractor.ExtractAll(ctx, payload, payloadDir); err != nil {
			return nil, &Error{Stage: StageExtractingPayload, Err: err}
		}
	}

	managedDir, err := locate.ManagedDir(payloadDir, target)
	if err != nil {
		return nil, &Error{Stage: StageLocating, Err: err}
	}
	p.logf("located managed directory %s", managedDir)

	assets, err := locate.Assets(managedDir, target)
	if err != nil {
		return nil, &Error{Stage: StageLocating, Err: err}
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &Error{Stage: StageRepackaging, Err: err}
		}
	}

	p.logf("writing %d assemblies to %s", len(assets), outputPath)
	count, err := p.archiver.WriteFlat(outputPath, assets, opts.Overwrite)
	if err != nil {
		return nil, &Error{Stage: StageRepackaging, Err: err}
	}

	result := &Result{
		Version:    target.Version,
		URL:        target.URL,
		OutputPath: outputPath,
		FileCount:  count,
	}
	for _, a := range assets {
		result.Assemblies = append(result.Assemblies, a.Name)
	}

	if info, err := os.Stat(outputPath); err == nil {
		result.SizeBytes = info.Size()
	}
	if sum, err := manifest.ComputeSHA256(outputPath); err == nil {
		result.SHA256 = sum
	}

	if opts.ManifestDir != "" {
		if err := p.record(opts.ManifestDir, result); err != nil {
			return nil, &Error{Stage: StageRepackaging, Err: fmt.Errorf("recording manifest: %w", err)}
		}
	}

	return result, nil
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func (p *Pipeline) record(dir string, result *Result) error {
	m, err := manifest.Load(dir)
	if err != nil {
		return err
	}
	m.Add(manifest.Entry{
		Version:   result.Version.Raw,
		File:      filepath.Base(result.OutputPath),
		URL:       result.URL,
		SHA256:    result.SHA256,
		SizeBytes: result.SizeBytes,
		Members:   result.FileCount,
		CreatedAt: time.Now(),
	})
	return m.Save(dir)
}
