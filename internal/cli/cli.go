// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mkowalski/monopack/internal/adapters/exec7z"
	"github.com/mkowalski/monopack/internal/adapters/flatzip"
	"github.com/mkowalski/monopack/internal/adapters/httpfetch"
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/locate"
	"github.com/mkowalski/monopack/internal/manifest"
	"github.com/mkowalski/monopack/internal/pipeline"
	"github.com/mkowalski/monopack/internal/ports"
	"github.com/mkowalski/monopack/internal/unityver"
	"github.com/mkowalski/monopack/internal/verify"
)

// Exit codes: each failure class maps to its own code so callers can branch
// on the outcome without parsing stderr.
const (
	ExitOK             = 0
	ExitGeneric        = 1
	ExitInvalidVersion = 2
	ExitDownloadFailed = 3
	ExitExtraction     = 4
	ExitAssetNotFound  = 5
	ExitOutputExists   = 6
	ExitCancelled      = 7
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() string
	DefaultConfig() *config.Config
}

// FetchService runs the fetch-and-repack pipeline for the CLI.
type FetchService interface {
	Fetch(ctx context.Context, cfg *config.Config, version string, opts pipeline.Options, sevenZip string, logf func(string, ...any)) (*pipeline.Result, error)
}

// VerifyService provides archive verification operations for the CLI.
type VerifyService interface {
	Verify(cfg *config.Config, version string) error
	Diff(cfg *config.Config, version1, version2 string) (*verify.DiffResult, error)
	ListVersions(cfg *config.Config) ([]manifest.Entry, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc ConfigService
	FetchSvc  FetchService
	VerifySvc VerifyService

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	exitCode := 0
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) { exitCode = code; _ = exitCode },
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error) { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() string            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() *config.Config { return config.DefaultConfig() }

// defaultFetchService assembles the production pipeline per invocation,
// honoring config and flag overrides.
type defaultFetchService struct{}

func (d *defaultFetchService) Fetch(ctx context.Context, cfg *config.Config, version string, opts pipeline.Options, sevenZip string, logf func(string, ...any)) (*pipeline.Result, error) {
	fetcher := httpfetch.New(
		httpfetch.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		httpfetch.WithMaxRetries(uint64(cfg.Retries)),
	)
	extractor := exec7z.New(exec7z.WithToolPath(exec7z.ResolveToolPath(sevenZip, cfg.SevenZip)))

	p := pipeline.New(fetcher, extractor, flatzip.New(), pipeline.WithLogf(logf))
	return p.Run(ctx, version, opts)
}

// defaultVerifyService wraps the verify package functions.
type defaultVerifyService struct{}

func (d *defaultVerifyService) Verify(cfg *config.Config, version string) error {
	return verify.Verify(cfg, version)
}
func (d *defaultVerifyService) Diff(cfg *config.Config, version1, version2 string) (*verify.DiffResult, error) {
	return verify.Diff(cfg, version1, version2)
}
func (d *defaultVerifyService) ListVersions(cfg *config.Config) ([]manifest.Entry, error) {
	return verify.ListVersions(cfg)
}

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) fetchSvc() FetchService {
	if c.FetchSvc != nil {
		return c.FetchSvc
	}
	return &defaultFetchService{}
}

func (c *CLI) verifySvc() VerifyService {
	if c.VerifySvc != nil {
		return c.VerifySvc
	}
	return &defaultVerifyService{}
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		// No command - would launch TUI, but we skip that for CLI testing
		fmt.Fprintln(c.Out, "No command specified. Use 'monopack help' for usage.")
		return
	}

	switch c.Args[1] {
	case "fetch":
		c.RunFetch()
	case "list":
		c.ListArchives()
	case "verify":
		c.RunVerify()
	case "diff":
		c.RunDiff()
	case "init":
		c.InitConfig()
	case "status":
		c.ShowStatus()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "monopack v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		fmt.Fprintf(c.Err, "Unknown command: %s\n", c.Args[1])
		c.PrintUsage()
		c.Exit(1)
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `monopack - Unity Windows Mono support repackaging tool

Usage:
  monopack                                 Launch interactive TUI
  monopack ui                              Launch interactive TUI
  monopack fetch <version> [flags]         Download an editor installer and repack
                                           its managed assemblies into a flat zip
  monopack list                            List all recorded archives
  monopack verify [version]                Verify a recorded archive (default: latest)
  monopack diff <version1> <version2>      Compare the members of two archives
  monopack init                            Create default config file
  monopack status                          Show configuration and tool status
  monopack version, -v                     Show version
  monopack help, -h                        Show this help

Fetch flags:
  -o, --output=<path>     Output archive path (default: <version>.zip)
  --overwrite             Replace the output archive if it exists
  --seven-zip=<path>      Extraction tool (also SEVEN_ZIP env, then config)
  --workdir=<path>        Parent directory for the scoped working area
  --timeout=<seconds>     Per-request download timeout

Config: ~/.monopack/config.yaml`)
}

// fetchFlags holds the parsed fetch command line.
type fetchFlags struct {
	version   string
	output    string
	overwrite bool
	sevenZip  string
	workDir   string
	timeout   int
	timeoutOK bool
	err       error
}

func parseFetchArgs(args []string) fetchFlags {
	var f fetchFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o", arg == "--output":
			if i+1 >= len(args) {
				f.err = fmt.Errorf("%s requires a path", arg)
				return f
			}
			i++
			f.output = args[i]
		case strings.HasPrefix(arg, "--output="):
			f.output = strings.TrimPrefix(arg, "--output=")
		case arg == "--overwrite":
			f.overwrite = true
		case strings.HasPrefix(arg, "--seven-zip="):
			f.sevenZip = strings.TrimPrefix(arg, "--seven-zip=")
		case strings.HasPrefix(arg, "--workdir="):
			f.workDir = strings.TrimPrefix(arg, "--workdir=")
		case strings.HasPrefix(arg, "--timeout="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--timeout="))
			if err != nil || n < 0 {
				f.err = fmt.Errorf("invalid --timeout value: %s", strings.TrimPrefix(arg, "--timeout="))
				return f
			}
			f.timeout = n
			f.timeoutOK = true
		case strings.HasPrefix(arg, "-"):
			f.err = fmt.Errorf("unknown flag: %s", arg)
			return f
		case f.version == "":
			f.version = arg
		default:
			f.err = fmt.Errorf("unexpected argument: %s", arg)
			return f
		}
	}
	if f.version == "" {
		f.err = errors.New("missing version argument")
	}
	return f
}

// RunFetch runs the fetch command.
func (c *CLI) RunFetch() {
	flags := parseFetchArgs(c.Args[2:])
	if flags.err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", flags.err)
		fmt.Fprintln(c.Out, "Usage: monopack fetch <version> [-o <path>] [--overwrite] [--seven-zip=<path>] [--workdir=<path>] [--timeout=<seconds>]")
		c.Exit(1)
		return
	}

	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	if flags.timeoutOK {
		cfg.TimeoutSeconds = flags.timeout
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir = config.ExpandPath(cfg.WorkDir)
	}

	opts := pipeline.Options{
		OutputPath:  flags.output,
		Overwrite:   flags.overwrite || cfg.Overwrite,
		WorkDir:     workDir,
		ManifestDir: config.ExpandPath(cfg.OutputDir),
	}
	if opts.OutputPath == "" && cfg.OutputDir != "" {
		// Unset -o lands the archive next to the manifest.
		if target, err := unityver.Resolve(flags.version); err == nil {
			opts.OutputPath = filepath.Join(config.ExpandPath(cfg.OutputDir), target.Version.ShortString()+".zip")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logf := func(format string, args ...any) {
		fmt.Fprintf(c.Out, "%s %s\n", c.cyan("=>"), fmt.Sprintf(format, args...))
	}

	result, err := c.fetchSvc().Fetch(ctx, cfg, flags.version, opts, flags.sevenZip, logf)
	if err != nil {
		code := exitCodeFor(err)
		if code == ExitCancelled {
			fmt.Fprintf(c.Err, "%s Interrupted\n", c.yellow("!"))
		} else {
			fmt.Fprintf(c.Err, "%s %v\n", c.red("x"), err)
		}
		c.Exit(code)
		return
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "%s %s: %s assemblies, %s\n",
		c.green("*"),
		result.OutputPath,
		c.yellow(fmt.Sprintf("%d", result.FileCount)),
		pipeline.FormatSize(result.SizeBytes))
	fmt.Fprintf(c.Out, "  sha256 %s\n", c.gray(result.SHA256))
}

// exitCodeFor maps a pipeline failure to its exit code. Cancellation wins
// over any stage classification.
func exitCodeFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ExitCancelled
	}
	if errors.Is(err, unityver.ErrInvalidVersion) {
		return ExitInvalidVersion
	}
	var dlErr *ports.DownloadError
	if errors.As(err, &dlErr) {
		return ExitDownloadFailed
	}
	var extErr *ports.ExtractionError
	if errors.As(err, &extErr) {
		return ExitExtraction
	}
	var collErr *ports.NameCollisionError
	if errors.Is(err, ports.ErrOutputExists) || errors.As(err, &collErr) {
		return ExitOutputExists
	}
	if errors.Is(err, locate.ErrAssetNotFound) {
		return ExitAssetNotFound
	}
	return ExitGeneric
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	cfg := svc.DefaultConfig()
	if err := svc.Save(cfg); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(1)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", svc.ConfigPath())
}

// ShowStatus shows the current status.
func (c *CLI) ShowStatus() {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	fmt.Fprintln(c.Out, "monopack status:")
	fmt.Fprintf(c.Out, "  Output:  %s\n", cfg.OutputDir)
	fmt.Fprintf(c.Out, "  Config:  %s\n", c.configSvc().ConfigPath())

	toolPath := exec7z.ResolveToolPath("", cfg.SevenZip)
	if exec7z.New(exec7z.WithToolPath(toolPath)).Available() {
		fmt.Fprintf(c.Out, "  7z:      %s\n", c.green(toolPath))
	} else {
		fmt.Fprintf(c.Out, "  7z:      %s\n", c.red(toolPath+" (not found)"))
	}
}

// RunVerify verifies a recorded archive.
func (c *CLI) RunVerify() {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	version := ""
	if len(c.Args) > 2 {
		version = c.Args[2]
	}

	if err := c.verifySvc().Verify(cfg, version); err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", err)
		c.Exit(1)
		return
	}

	label := version
	if label == "" {
		label = "latest archive"
	}
	fmt.Fprintf(c.Out, "%s Verified %s\n", c.green("*"), label)
}

// RunDiff compares two recorded archives.
func (c *CLI) RunDiff() {
	if len(c.Args) < 4 {
		fmt.Fprintln(c.Out, "Usage: monopack diff <version1> <version2>")
		c.Exit(1)
		return
	}

	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	result, err := c.verifySvc().Diff(cfg, c.Args[2], c.Args[3])
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	if len(result.Changes) == 0 {
		fmt.Fprintf(c.Out, "No differences between %s and %s\n", result.Version1, result.Version2)
		return
	}

	fmt.Fprintf(c.Out, "%s -> %s: %s added, %s modified, %s deleted\n\n",
		c.cyan(result.Version1),
		c.cyan(result.Version2),
		c.green(fmt.Sprintf("%d", result.Added)),
		c.yellow(fmt.Sprintf("%d", result.Modified)),
		c.red(fmt.Sprintf("%d", result.Deleted)))

	for _, change := range result.Changes {
		switch change.Status {
		case 'A':
			fmt.Fprintf(c.Out, "  %s %s %s\n", c.green("A"), change.Name, c.gray(pipeline.FormatSize(change.Size2)))
		case 'D':
			fmt.Fprintf(c.Out, "  %s %s %s\n", c.red("D"), change.Name, c.gray(pipeline.FormatSize(change.Size1)))
		case 'M':
			fmt.Fprintf(c.Out, "  %s %s %s -> %s\n", c.yellow("M"), change.Name,
				c.gray(pipeline.FormatSize(change.Size1)), c.gray(pipeline.FormatSize(change.Size2)))
		}
	}
}

// ListArchives lists all recorded archives.
func (c *CLI) ListArchives() {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	entries, err := c.verifySvc().ListVersions(cfg)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.Out, "No archives recorded")
		return
	}

	fmt.Fprintf(c.Out, "Archives in %s:\n\n", c.cyan(cfg.OutputDir))
	fmt.Fprintf(c.Out, "  %-16s %-20s %10s %10s %s\n", "VERSION", "FILE", "SIZE", "MEMBERS", "CREATED")
	fmt.Fprintf(c.Out, "  %-16s %-20s %10s %10s %s\n", "-------", "----", "----", "-------", "-------")

	for _, e := range entries {
		fmt.Fprintf(c.Out, "  %-16s %-20s %10s %10d %s\n",
			e.Version,
			e.File,
			pipeline.FormatSize(e.SizeBytes),
			e.Members,
			e.CreatedAt.Format("2006-01-02 15:04"))
	}
}
