package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	mdview "github.com/alnah/go-mdview"
	"github.com/alnah/go-mdview/internal/config"
	"github.com/alnah/go-mdview/internal/hints"
	"github.com/alnah/go-mdview/internal/logging"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have a Markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrTargetNotReached   = errors.New("target line not reached")
)

// maxWorkers bounds --workers; each worker owns a Chrome process.
const maxWorkers = 32

func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// runMain dispatches the command in args and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, rest, env)
	case "map":
		err = runMap(ctx, rest, env)
	case "probe":
		err = runProbe(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdview %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "mdview %s: %v%s\n", cmd, err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, mdview.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, mdview.ErrStyleNotFound):
		return hints.ForStyleNotFound(mdview.StyleNames())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputFile()
	}
	return ""
}

// triedPaths extracts the search list from a config-not-found message.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// settings is the resolved configuration of one command run.
type settings struct {
	cfg     *config.Config
	timeout time.Duration
	log     logging.Logger
	host    hostInfo
}

// loadSettings merges defaults, config file, environment and flags, in
// increasing order of precedence.
func loadSettings(f *commonFlags, env *Environment) (*settings, error) {
	envCfg := loadEnvConfig()
	if !f.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := &config.Config{}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg.Sync = config.DefaultConfig().Sync
	}

	applyEnvConfig(envCfg, cfg)

	timeout := time.Duration(0)
	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeout, f.timeout)
		}
		timeout = d
	}

	switch {
	case f.logLevel != "":
		cfg.Log.Level = f.logLevel
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = time.Duration(cfg.Browser.TimeoutSec) * time.Second
	}

	provider, err := logging.NewProvider(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}

	return &settings{cfg: cfg, timeout: timeout, log: provider.GetLogger("mdview"), host: detectHost()}, nil
}

// applyRenderFlags overrides the render section of cfg with set flags.
func applyRenderFlags(f *renderFlags, cfg *config.Config) {
	if f.style != "" {
		cfg.Render.Style = f.style
	}
	if f.highlightStyle != "" {
		cfg.Render.HighlightStyle = f.highlightStyle
	}
	if f.assetPath != "" {
		cfg.Render.AssetPath = f.assetPath
	}
	if f.noHardWraps {
		off := false
		cfg.Render.HardWraps = &off
	}
}

// newRenderer builds a Renderer from the resolved settings.
func (s *settings) newRenderer(mode mdview.ScrollMode) (*mdview.Renderer, error) {
	opts := []mdview.Option{
		mdview.WithTimeout(s.timeout),
		mdview.WithScrollMode(mode),
		mdview.WithHardWraps(s.cfg.Render.HardWrapsEnabled()),
		mdview.WithRenderLogger(s.log),
	}
	if s.cfg.Render.Style != "" {
		opts = append(opts, mdview.WithStyle(s.cfg.Render.Style))
	}
	if s.cfg.Render.HighlightStyle != "" {
		opts = append(opts, mdview.WithHighlightStyle(s.cfg.Render.HighlightStyle))
	}
	if s.cfg.Render.AssetPath != "" {
		opts = append(opts, mdview.WithAssetPath(s.cfg.Render.AssetPath))
	}
	return mdview.NewRenderer(opts...)
}

// scrollMode returns the configured mode; window overrides it.
func (s *settings) scrollMode(window bool) mdview.ScrollMode {
	if window || s.cfg.Sync.WindowScroll {
		return mdview.ScrollWindow
	}
	return mdview.ScrollContainer
}

func (s *settings) lockDuration() time.Duration {
	return time.Duration(s.cfg.Sync.LockDurationMs) * time.Millisecond
}

// controllerOptions maps the sync section onto controller options.
func (s *settings) controllerOptions() []mdview.ControllerOption {
	var opts []mdview.ControllerOption
	if s.cfg.Sync.LockDurationMs > 0 {
		opts = append(opts, mdview.WithLockDuration(s.lockDuration()))
	}
	return append(opts, mdview.WithUserScrollDebounce(time.Duration(s.cfg.Sync.DebounceMs)*time.Millisecond))
}

// browserOptions maps the browser section and the detected host onto
// browser options.
func (s *settings) browserOptions() []mdview.BrowserOption {
	off, reason := s.host.sandboxOff(s.cfg.Browser)
	if off {
		s.log.Debug("chrome sandbox disabled", "reason", reason)
	}
	opts := []mdview.BrowserOption{
		mdview.WithNoSandbox(off),
		mdview.WithBrowserLogger(s.log),
	}
	if s.cfg.Browser.Bin != "" {
		opts = append(opts, mdview.WithBrowserBin(s.cfg.Browser.Bin))
	}
	return opts
}
