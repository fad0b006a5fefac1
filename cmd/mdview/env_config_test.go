package main

// Notes:
// - loadEnvConfig: malformed or non-positive durations and counts are
//   ignored, not reported.
// - applyEnvConfig: env values only fill fields the config file left empty.
// - Tests use t.Setenv() which prevents t.Parallel() at parent level.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdview/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Run("all variables", func(t *testing.T) {
		t.Setenv("MDVIEW_CONFIG", "work")
		t.Setenv("MDVIEW_LOG_LEVEL", "debug")
		t.Setenv("MDVIEW_TIMEOUT", "2m")
		t.Setenv("MDVIEW_WORKERS", "3")

		cfg := loadEnvConfig()

		if cfg.ConfigPath != "work" {
			t.Errorf("ConfigPath = %q, want work", cfg.ConfigPath)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.Timeout != 2*time.Minute {
			t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3", cfg.Workers)
		}
	})

	tests := []struct {
		name    string
		timeout string
		workers string
	}{
		{"malformed", "soon", "many"},
		{"negative", "-5s", "-2"},
		{"zero", "0s", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" values ignored", func(t *testing.T) {
			t.Setenv("MDVIEW_TIMEOUT", tt.timeout)
			t.Setenv("MDVIEW_WORKERS", tt.workers)

			cfg := loadEnvConfig()

			if cfg.Timeout != 0 {
				t.Errorf("Timeout = %v, want 0", cfg.Timeout)
			}
			if cfg.Workers != 0 {
				t.Errorf("Workers = %d, want 0", cfg.Workers)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Run("unknown variable warns", func(t *testing.T) {
		t.Setenv("MDVIEW_TIMEOTU", "1m")

		var buf bytes.Buffer
		warnUnknownEnvVars(&buf)

		if !strings.Contains(buf.String(), "MDVIEW_TIMEOTU") {
			t.Errorf("expected warning for MDVIEW_TIMEOTU, got %q", buf.String())
		}
	})

	t.Run("known variables are silent", func(t *testing.T) {
		for name := range knownEnvVars {
			t.Setenv(name, "x")
		}

		var buf bytes.Buffer
		warnUnknownEnvVars(&buf)

		for name := range knownEnvVars {
			if strings.Contains(buf.String(), name+" ") {
				t.Errorf("unexpected warning for %s: %q", name, buf.String())
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env fills empty config fields only
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	env := &envConfig{LogLevel: "warn", Timeout: 90 * time.Second, Workers: 2}

	t.Run("fills empty fields", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{}
		applyEnvConfig(env, cfg)

		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
		}
		if cfg.Browser.TimeoutSec != 90 {
			t.Errorf("Browser.TimeoutSec = %d, want 90", cfg.Browser.TimeoutSec)
		}
		if cfg.Browser.Workers != 2 {
			t.Errorf("Browser.Workers = %d, want 2", cfg.Browser.Workers)
		}
	})

	t.Run("keeps config file values", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{
			Browser: config.BrowserConfig{TimeoutSec: 10, Workers: 5},
			Log:     config.LogConfig{Level: "error"},
		}
		applyEnvConfig(env, cfg)

		if cfg.Log.Level != "error" {
			t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
		}
		if cfg.Browser.TimeoutSec != 10 {
			t.Errorf("Browser.TimeoutSec = %d, want 10", cfg.Browser.TimeoutSec)
		}
		if cfg.Browser.Workers != 5 {
			t.Errorf("Browser.Workers = %d, want 5", cfg.Browser.Workers)
		}
	})

	t.Run("sub-second timeout rounds up to one second", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{}
		applyEnvConfig(&envConfig{Timeout: 300 * time.Millisecond}, cfg)

		if cfg.Browser.TimeoutSec != 1 {
			t.Errorf("Browser.TimeoutSec = %d, want 1", cfg.Browser.TimeoutSec)
		}
	})
}
