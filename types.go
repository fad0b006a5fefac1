package mdview

import (
	"strings"
	"time"
)

// Input contains rendering parameters.
type Input struct {
	Markdown  string // Markdown content (required)
	SourceDir string // Directory for resolving relative image and link paths (optional)
	CSS       string // Custom CSS appended after the style (optional)
	Title     string // Page title; defaults to the front matter title
}

// Block is the source range of one top-level rendered block.
// Lines are 0-based lines of the original input; EndLine is exclusive.
type Block struct {
	ID        string
	Kind      string
	StartLine int
	EndLine   int
}

// Document is a rendered Markdown document.
type Document struct {
	// HTML is the standalone page: style, observer-ready markup and content.
	HTML string
	// Fragment is the block-wrapped body without the page shell.
	Fragment string
	Title    string
	Blocks   []Block
	// Map resolves source lines against Blocks.
	Map *SourceMap
	// LineCount is the number of lines of the input.
	LineCount int
	// FrontMatter holds the decoded front matter keys, if any.
	FrontMatter map[string]any
}

// countLines returns the number of lines in s. A trailing newline does not
// start a new line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	styleInput     string
	resolvedStyle  string
	assetPath      string
	hardWraps      bool
	highlightStyle string
	mode           ScrollMode
	timeout        time.Duration
}

// defaultTimeout bounds a single render when the context has no deadline.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the render timeout used when the context has no deadline.
// Panics if d is not positive.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdview: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithStyle sets the page style. Accepts a built-in or custom style name
// ("default", "dark"), a path to a CSS file, or raw CSS content.
func WithStyle(style string) Option {
	return func(r *Renderer) {
		r.cfg.styleInput = style
	}
}

// WithAssetPath sets a directory whose styles/, templates/ and scripts/
// override the built-in assets.
func WithAssetPath(path string) Option {
	return func(r *Renderer) {
		r.cfg.assetPath = path
	}
}

// WithHardWraps controls whether single newlines in paragraphs render as
// line breaks. Enabled by default.
func WithHardWraps(enabled bool) Option {
	return func(r *Renderer) {
		r.cfg.hardWraps = enabled
	}
}

// WithHighlightStyle sets the chroma style for fenced code.
func WithHighlightStyle(name string) Option {
	return func(r *Renderer) {
		r.cfg.highlightStyle = name
	}
}

// WithScrollMode selects which element of the page scrolls.
func WithScrollMode(mode ScrollMode) Option {
	return func(r *Renderer) {
		r.cfg.mode = mode
	}
}

// WithRenderLogger sets the renderer's logger.
func WithRenderLogger(l Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}
