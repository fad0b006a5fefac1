package mdview

import (
	"context"
	"errors"
	"sync"
)

// ViewerOptions configures NewViewer.
type ViewerOptions struct {
	// Renderer renders every update. Nil uses NewRenderer with the scroll
	// mode below.
	Renderer *Renderer
	// Mode is used when Renderer is nil.
	Mode   ScrollMode
	Width  int
	Height int
	// SourceDir resolves relative image and link paths.
	SourceDir string
	// Controller options, applied after the viewer's logger.
	Controller []ControllerOption
	Logger     Logger
}

// Viewer shows a Markdown document in a browser page and keeps a
// Controller attached to it. The first Load or Update opens the page;
// later updates replace the content in place so the scroll position
// survives.
type Viewer struct {
	mu       sync.Mutex
	browser  *Browser
	renderer *Renderer
	opts     ViewerOptions
	log      Logger

	surface *BrowserSurface
	ctrl    *Controller
	doc     *Document
	closed  bool
}

// NewViewer creates a Viewer drawing pages from browser.
func NewViewer(browser *Browser, opts ViewerOptions) (*Viewer, error) {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}

	renderer := opts.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewRenderer(WithScrollMode(opts.Mode), WithRenderLogger(log))
		if err != nil {
			return nil, err
		}
	}

	return &Viewer{
		browser:  browser,
		renderer: renderer,
		opts:     opts,
		log:      log,
	}, nil
}

// Load shows a new document. If a document is already shown, the
// controller is reset: the new document starts at the top until a target
// line is set.
func (v *Viewer) Load(ctx context.Context, markdown string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrViewerClosed
	}
	doc, err := v.render(ctx, markdown)
	if err != nil {
		return err
	}
	if v.surface == nil {
		return v.open(ctx, doc)
	}

	v.ctrl.Reset()
	v.ctrl.SetLineMapper(doc.Map)
	if err := v.surface.ReplaceContent(ctx, doc.Fragment); err != nil {
		return err
	}
	v.surface.ScrollTo(0)
	v.doc = doc
	return nil
}

// Update shows the current state of a document that is still being
// produced. final reports that markdown is complete, which lets a pending
// target line fall back to the end of the document if it never appeared.
func (v *Viewer) Update(ctx context.Context, markdown string, final bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrViewerClosed
	}
	doc, err := v.render(ctx, markdown)
	if err != nil {
		return err
	}

	if v.surface == nil {
		if err := v.open(ctx, doc); err != nil {
			return err
		}
	} else {
		v.ctrl.SetLineMapper(doc.Map)
		if err := v.surface.ReplaceContent(ctx, doc.Fragment); err != nil {
			return err
		}
		v.doc = doc
	}

	if final {
		v.ctrl.OnStreamingComplete()
	}
	return nil
}

// Controller returns the scroll controller, or nil before the first Load or
// Update.
func (v *Viewer) Controller() *Controller {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctrl
}

// Surface returns the page surface, or nil before the first Load or Update.
func (v *Viewer) Surface() *BrowserSurface {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surface
}

// Document returns the last rendered document.
func (v *Viewer) Document() *Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// Close disposes the controller and closes the page. The browser stays
// open.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true

	var errs []error
	if v.ctrl != nil {
		v.ctrl.Dispose()
	}
	if v.surface != nil {
		errs = append(errs, v.surface.Close())
	}
	return errors.Join(errs...)
}

func (v *Viewer) render(ctx context.Context, markdown string) (*Document, error) {
	return v.renderer.Render(ctx, Input{Markdown: markdown, SourceDir: v.opts.SourceDir})
}

// open must be called with v.mu held.
func (v *Viewer) open(ctx context.Context, doc *Document) error {
	surface, err := OpenSurface(ctx, v.browser, doc.HTML, BrowserSurfaceOptions{
		Mode:   v.renderer.Mode(),
		Width:  v.opts.Width,
		Height: v.opts.Height,
		Logger: v.log,
	})
	if err != nil {
		return err
	}

	opts := append([]ControllerOption{WithLogger(v.log)}, v.opts.Controller...)
	v.ctrl = NewController(surface, doc.Map, opts...)
	v.ctrl.Start()

	v.surface = surface
	v.doc = doc
	v.log.Debug("viewer opened", "blocks", len(doc.Blocks), "mode", v.renderer.Mode().String())
	return nil
}
