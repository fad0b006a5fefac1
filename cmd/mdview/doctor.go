package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	mdview "github.com/alnah/go-mdview"
	"github.com/alnah/go-mdview/internal/config"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult is the report printed by the doctor command.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	Sync     syncInfo   `json:"sync"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
	// SandboxOff names the signal that turns the sandbox off.
	SandboxOff string `json:"sandbox_off,omitempty"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	Config        string `json:"mdview_config,omitempty"`
}

// syncInfo is the scroll-sync timing probe and viewers would run with.
type syncInfo struct {
	LockDurationMs int  `json:"lock_duration_ms"`
	DebounceMs     int  `json:"debounce_ms"`
	WindowScroll   bool `json:"window_scroll"`
}

type systemInfo struct {
	TempWritable bool     `json:"temp_writable"`
	Styles       []string `json:"styles"`
	PoolSize     int      `json:"pool_size"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Warnings still exit 0; only errors exit 1.
func runDoctorCmd(args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	result := runDoctor(detectHost(), os.Getenv("MDVIEW_CONFIG"))

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor checks host against the config named by configName, or the
// defaults when it is empty.
func runDoctor(host hostInfo, configName string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:            runtime.GOOS,
			Arch:          runtime.GOARCH,
			Container:     host.Container,
			ContainerHint: host.ContainerHint,
			CI:            host.CI,
			Config:        configName,
		},
	}

	// The config decides the Chrome binary and sandbox, so it goes first.
	cfg := checkConfig(result, configName)
	checkChrome(result, host, cfg.Browser)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkConfig loads the config the other commands would use. A broken
// config is an error; the defaults are reported in its place.
func checkConfig(result *doctorResult, name string) *config.Config {
	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("MDVIEW_CONFIG: %v", err))
		} else {
			cfg = loaded
			cfg.ApplyDefaults()
		}
	}

	result.Sync = syncInfo{
		LockDurationMs: cfg.Sync.LockDurationMs,
		DebounceMs:     cfg.Sync.DebounceMs,
		WindowScroll:   cfg.Sync.WindowScroll,
	}
	if result.Sync.LockDurationMs == 0 {
		result.Sync.LockDurationMs = int(mdview.DefaultLockDuration.Milliseconds())
	}
	return cfg
}

// checkChrome resolves the browser a Browser would launch on this host.
func checkChrome(result *doctorResult, host hostInfo, browser config.BrowserConfig) {
	off, reason := host.sandboxOff(browser)
	result.Chrome.Sandbox = !off
	result.Chrome.SandboxOff = reason

	path, found := host.chromePath(browser.Bin)
	if !found {
		// Not fatal: rod downloads Chromium on first launch.
		result.Warnings = append(result.Warnings,
			"Chrome/Chromium not found; rod will download Chromium on first use. Set ROD_BROWSER_BIN or browser.bin to use an installed browser")
		return
	}
	if _, err := os.Stat(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", path))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = path

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path from config, env or rod lookup
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

func checkSystem(result *doctorResult) {
	// Pages are loaded from temp files.
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "mdview-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}

	result.System.Styles = mdview.StyleNames()
	result.System.PoolSize = mdview.ResolvePoolSize(0)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdview doctor")
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found (downloaded on first use)")
	}
	if r.Chrome.Sandbox {
		fmt.Fprintln(w, "  [OK] Sandbox: enabled")
	} else {
		fmt.Fprintf(w, "  [OK] Sandbox: disabled (%s)\n", r.Chrome.SandboxOff)
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.Env.Config != "" {
		fmt.Fprintf(w, "  [OK] MDVIEW_CONFIG: %s\n", r.Env.Config)
	}
	fmt.Fprintln(w)

	// Scroll sync section
	fmt.Fprintln(w, "Scroll sync")
	fmt.Fprintf(w, "  [OK] Lock window: %dms\n", r.Sync.LockDurationMs)
	fmt.Fprintf(w, "  [OK] User scroll debounce: %dms\n", r.Sync.DebounceMs)
	if r.Sync.WindowScroll {
		fmt.Fprintln(w, "  [OK] Scrolls: window")
	} else {
		fmt.Fprintln(w, "  [OK] Scrolls: content container")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintf(w, "  [OK] Styles: %s\n", strings.Join(r.System.Styles, ", "))
	fmt.Fprintf(w, "  [OK] Default pool size: %d\n", r.System.PoolSize)
	fmt.Fprintln(w)

	printFindings(w, "Warnings:", "WARN", r.Warnings)
	printFindings(w, "Errors:", "ERROR", r.Errors)

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to view")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printFindings(w io.Writer, title, tag string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  [%s] %s\n", tag, item)
	}
	fmt.Fprintln(w)
}
