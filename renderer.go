package mdview

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-mdview/internal/assets"
	"github.com/alnah/go-mdview/internal/fileutil"
	"github.com/alnah/go-mdview/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.PageAssembler        = (*pipeline.PageTemplate)(nil)
)

// Renderer turns Markdown into block-annotated HTML pages and source maps.
// A Renderer is safe for concurrent use.
type Renderer struct {
	cfg           rendererConfig
	log           Logger
	assetLoader   assets.AssetLoader
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	page          pipeline.PageAssembler
	highlightCSS  string
}

// NewRenderer creates a Renderer. It returns an error when the style, the
// asset directory or the page template cannot be loaded.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg: rendererConfig{
			hardWraps:      true,
			highlightStyle: pipeline.DefaultHighlightStyle,
			mode:           ScrollContainer,
			timeout:        defaultTimeout,
		},
		log:          nopLogger{},
		assetLoader:  assets.NewEmbeddedLoader(),
		preprocessor: &pipeline.CommonMarkPreprocessor{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(r.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		r.assetLoader = resolver
	}

	if err := r.resolveStyle(); err != nil {
		return nil, err
	}

	tmpl, err := r.assetLoader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", convertAssetError(err))
	}
	if r.page, err = pipeline.NewPageTemplate(tmpl); err != nil {
		return nil, fmt.Errorf("initializing page template: %w", err)
	}

	conv := pipeline.NewGoldmarkConverter(
		pipeline.WithHardWraps(r.cfg.hardWraps),
		pipeline.WithHighlightStyle(r.cfg.highlightStyle),
	)
	r.htmlConverter = conv
	if r.highlightCSS, err = pipeline.HighlightCSS(conv.HighlightStyle()); err != nil {
		return nil, err
	}

	return r, nil
}

// Mode returns the scroll mode pages are assembled for.
func (r *Renderer) Mode() ScrollMode {
	return r.cfg.mode
}

// Render converts input into a Document.
// The context is used for cancellation; when it has no deadline the
// renderer's timeout applies. Internal panics are returned as errors.
func (r *Renderer) Render(ctx context.Context, input Input) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()

	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	source := pipeline.NormalizeLineEndings(input.Markdown)

	body, fm, fmErr := pipeline.SplitFrontMatter(source)
	if fmErr != nil {
		r.log.Warn("front matter ignored", "error", fmErr)
	}

	mdContent := r.preprocessor.PreprocessMarkdown(ctx, body)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res, err := r.htmlConverter.Convert(ctx, mdContent, fm.Lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	fragment := res.Fragment
	if input.SourceDir != "" {
		fragment, err = pipeline.RewriteRelativePaths(fragment, input.SourceDir)
		if err != nil {
			return nil, fmt.Errorf("rewriting relative paths: %w", err)
		}
	}

	// Completes the ==text== syntax started in preprocessing.
	fragment = pipeline.ConvertMarkPlaceholders(fragment)

	// Style first, then code highlighting, user CSS last so it can override.
	css := r.cfg.resolvedStyle + "\n" + r.highlightCSS
	if input.CSS != "" {
		css += "\n" + input.CSS
	}

	title := input.Title
	if title == "" {
		title = fm.Title()
	}

	page, err := r.page.AssemblePage(ctx, &pipeline.PageData{
		Title: title,
		CSS:   css,
		Body:  fragment,
		Mode:  r.cfg.mode.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("assembling page: %w", err)
	}

	blocks := make([]Block, len(res.Blocks))
	for i, b := range res.Blocks {
		blocks[i] = Block(b)
	}

	r.log.Debug("markdown rendered", "blocks", len(blocks), "frontMatterLines", fm.Lines)

	return &Document{
		HTML:        page,
		Fragment:    fragment,
		Title:       title,
		Blocks:      blocks,
		Map:         NewSourceMap(blocks),
		LineCount:   countLines(source),
		FrontMatter: fm.Meta,
	}, nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS
// content. An empty input selects the default style.
func (r *Renderer) resolveStyle() error {
	input := r.cfg.styleInput
	if input == "" {
		input = DefaultStyle
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		r.cfg.resolvedStyle = string(content)
		return nil
	}

	if fileutil.IsCSS(input) {
		r.cfg.resolvedStyle = input
		return nil
	}

	css, err := r.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, convertAssetError(err))
	}
	r.cfg.resolvedStyle = css
	return nil
}
