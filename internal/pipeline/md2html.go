package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used for fenced code.
const DefaultHighlightStyle = "github"

// Result is the output of a Markdown conversion.
type Result struct {
	// Fragment is the rendered body: one wrapper element per block.
	Fragment string
	// Blocks lists the wrappers in document order.
	Blocks []Block
}

// HTMLConverter abstracts Markdown to block-annotated HTML conversion.
type HTMLConverter interface {
	Convert(ctx context.Context, content string, lineOffset int) (*Result, error)
}

// ConverterOption configures a GoldmarkConverter.
type ConverterOption func(*converterConfig)

type converterConfig struct {
	hardWraps      bool
	highlightStyle string
}

// WithHardWraps renders single newlines inside paragraphs as <br>.
func WithHardWraps(enabled bool) ConverterOption {
	return func(c *converterConfig) {
		c.hardWraps = enabled
	}
}

// WithHighlightStyle sets the chroma style name for fenced code.
// Unknown names fall back to DefaultHighlightStyle.
func WithHighlightStyle(name string) ConverterOption {
	return func(c *converterConfig) {
		c.highlightStyle = name
	}
}

// GoldmarkConverter converts Markdown to block-annotated HTML using goldmark.
type GoldmarkConverter struct {
	md    goldmark.Markdown
	style string
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions,
// footnotes, syntax highlighting and block wrappers.
func NewGoldmarkConverter(opts ...ConverterOption) *GoldmarkConverter {
	cfg := converterConfig{hardWraps: true, highlightStyle: DefaultHighlightStyle}
	for _, opt := range opts {
		opt(&cfg)
	}
	if styles.Registry[cfg.highlightStyle] == nil {
		cfg.highlightStyle = DefaultHighlightStyle
	}

	// WithUnsafe is not used: ==highlight== marks go through placeholders.
	rendererOpts := []renderer.Option{html.WithXHTML()}
	if cfg.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.highlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
			newBlockExtension(),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)

	return &GoldmarkConverter{md: md, style: cfg.highlightStyle}
}

// HighlightStyle returns the chroma style the converter highlights with.
func (c *GoldmarkConverter) HighlightStyle() string {
	return c.style
}

// Convert renders content. lineOffset is added to every block's line range,
// so callers that stripped leading lines (front matter) get line numbers of
// the original file.
// Goldmark does not take a context, so conversion runs in a goroutine and
// the call returns early on cancellation.
func (c *GoldmarkConverter) Convert(ctx context.Context, content string, lineOffset int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrHTMLConversion, r)}
			}
		}()

		pc := parser.NewContext()
		pc.Set(lineOffsetKey, lineOffset)

		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
			done <- outcome{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}

		blocks, _ := pc.Get(blocksKey).([]Block)
		done <- outcome{res: &Result{Fragment: buf.String(), Blocks: blocks}}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.res, o.err
	}
}
