package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdview/internal/fileutil"
	"github.com/alnah/go-mdview/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Value limits.
const (
	MaxLockDurationMs = 10_000
	MaxDebounceMs     = 5_000
	MinViewportSize   = 100
	MaxViewportSize   = 10_000
	MaxTimeoutSec     = 600
	MaxWorkers        = 64
)

// Defaults for a zero config.
const (
	DefaultLockDurationMs = 300
	DefaultDebounceMs     = 100
	DefaultWidth          = 1024
	DefaultHeight         = 768
	DefaultTimeoutSec     = 30
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// Config holds all configuration for the viewer.
type Config struct {
	Sync    SyncConfig    `yaml:"sync"`
	Render  RenderConfig  `yaml:"render"`
	Browser BrowserConfig `yaml:"browser"`
	Log     LogConfig     `yaml:"log"`
}

// SyncConfig tunes the scroll controller.
type SyncConfig struct {
	WindowScroll   bool `yaml:"windowScroll"`   // Scroll the window instead of the content container
	LockDurationMs int  `yaml:"lockDurationMs"` // Echo suppression window after a programmatic scroll
	DebounceMs     int  `yaml:"debounceMs"`     // User scroll report debounce (0 = report immediately)
}

// RenderConfig defines Markdown rendering options.
type RenderConfig struct {
	Style          string `yaml:"style"`          // Style name, CSS file path or CSS content (empty = default)
	HardWraps      *bool  `yaml:"hardWraps"`      // Nil = enabled
	HighlightStyle string `yaml:"highlightStyle"` // Chroma style name (empty = github)
	AssetPath      string `yaml:"assetPath"`      // Directory overriding embedded assets
}

// BrowserConfig defines the headless Chrome host.
type BrowserConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TimeoutSec int    `yaml:"timeoutSec"`
	Container  bool   `yaml:"container"` // Running inside a container: disables the Chrome sandbox
	Bin        string `yaml:"bin"`       // Chrome binary (empty = ROD_BROWSER_BIN or download)
	Workers    int    `yaml:"workers"`   // Browser pool size (0 = auto)
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json, pretty
}

// HardWrapsEnabled resolves the hardWraps tri-state.
func (r RenderConfig) HardWrapsEnabled() bool {
	return r.HardWraps == nil || *r.HardWraps
}

// Validate checks value ranges. Zero values mean "use the default" and are
// always valid. Called automatically by LoadConfig.
func (c *Config) Validate() error {
	if err := validateRange("sync.lockDurationMs", c.Sync.LockDurationMs, 0, MaxLockDurationMs); err != nil {
		return err
	}
	if err := validateRange("sync.debounceMs", c.Sync.DebounceMs, 0, MaxDebounceMs); err != nil {
		return err
	}

	if c.Browser.Width != 0 {
		if err := validateRange("browser.width", c.Browser.Width, MinViewportSize, MaxViewportSize); err != nil {
			return err
		}
	}
	if c.Browser.Height != 0 {
		if err := validateRange("browser.height", c.Browser.Height, MinViewportSize, MaxViewportSize); err != nil {
			return err
		}
	}
	if err := validateRange("browser.timeoutSec", c.Browser.TimeoutSec, 0, MaxTimeoutSec); err != nil {
		return err
	}
	if err := validateRange("browser.workers", c.Browser.Workers, 0, MaxWorkers); err != nil {
		return err
	}

	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
		}
	}
	if c.Log.Format != "" {
		switch strings.ToLower(c.Log.Format) {
		case "console", "json", "pretty":
		default:
			return fmt.Errorf("%w: log.format %q (must be console, json, or pretty)", ErrInvalidValue, c.Log.Format)
		}
	}

	return nil
}

func validateRange(field string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidValue, field, lo, hi, value)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			LockDurationMs: DefaultLockDurationMs,
			DebounceMs:     DefaultDebounceMs,
		},
		Browser: BrowserConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			TimeoutSec: DefaultTimeoutSec,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ApplyDefaults fills zero fields from DefaultConfig. Sync durations are
// left alone: zero debounce is meaningful.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Browser.Width == 0 {
		c.Browser.Width = d.Browser.Width
	}
	if c.Browser.Height == 0 {
		c.Browser.Height = d.Browser.Height
	}
	if c.Browser.TimeoutSec == 0 {
		c.Browser.TimeoutSec = d.Browser.TimeoutSec
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-mdview/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileutil.FileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			user := filepath.Join(dir, "go-mdview", name+ext)
			if fileutil.FileExists(user) {
				return user, nil
			}
			tried = append(tried, user)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
