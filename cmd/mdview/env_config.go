package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdview/internal/config"
)

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath string        // MDVIEW_CONFIG: config file name or path
	LogLevel   string        // MDVIEW_LOG_LEVEL: debug, info, warn, error
	Timeout    time.Duration // MDVIEW_TIMEOUT: page and render timeout
	Workers    int           // MDVIEW_WORKERS: browser pool size
}

// knownEnvVars lists valid MDVIEW_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDVIEW_CONFIG":    true,
	"MDVIEW_LOG_LEVEL": true,
	"MDVIEW_TIMEOUT":   true,
	"MDVIEW_WORKERS":   true,
	"MDVIEW_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MDVIEW_CONFIG"),
		LogLevel:   os.Getenv("MDVIEW_LOG_LEVEL"),
	}

	if timeout := os.Getenv("MDVIEW_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := os.Getenv("MDVIEW_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}

// warnUnknownEnvVars writes warnings for unrecognized MDVIEW_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "MDVIEW_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment values to cfg where cfg is still
// empty. Precedence: CLI flags > env vars > config file > defaults
// (flags are applied later by applyCommonFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.LogLevel != "" && cfg.Log.Level == "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.Timeout > 0 && cfg.Browser.TimeoutSec == 0 {
		cfg.Browser.TimeoutSec = max(1, int(env.Timeout/time.Second))
	}
	if env.Workers > 0 && cfg.Browser.Workers == 0 {
		cfg.Browser.Workers = env.Workers
	}
}
