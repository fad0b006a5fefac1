package mdview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"github.com/alnah/go-mdview/internal/assets"
	"github.com/alnah/go-mdview/internal/fileutil"
)

// ContentSelector selects the element holding the rendered blocks.
const ContentSelector = "#mdview-content"

// Default page size used when BrowserSurfaceOptions leaves it unset.
const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// signalBinding is the window function the page observer calls.
const signalBinding = "__mdviewSignal"

const scrollScript = `function (selector, windowMode, y) {
  if (windowMode) {
    window.scrollTo(0, y);
    return window.scrollY;
  }
  const c = document.querySelector(selector);
  if (!c) {
    return null;
  }
  c.scrollTop = y;
  return c.scrollTop;
}`

const replaceContentScript = `function (selector, html) {
  const c = document.querySelector(selector);
  if (!c) {
    return false;
  }
  c.innerHTML = html;
  return true;
}`

const disconnectScript = `function () {
  if (window.__mdviewObserve) {
    window.__mdviewObserve.disconnect();
  }
}`

// BrowserSurfaceOptions configures OpenSurface.
type BrowserSurfaceOptions struct {
	// Mode must match the mode the page was rendered for.
	Mode ScrollMode
	// Width and Height set the viewport in CSS pixels.
	Width  int
	Height int
	Logger Logger
}

// BrowserSurface is a Surface backed by a Chrome page.
// Geometry is measured with getBoundingClientRect on every call; scroll,
// resize and mutation events are forwarded from an in-page observer.
type BrowserSurface struct {
	page     *rod.Page
	timeout  time.Duration
	mode     ScrollMode
	log      Logger
	geometry string

	hub signalHub

	pendingMu sync.Mutex
	pending   [3]bool
	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup

	mu         sync.Mutex
	last       Geometry
	stopExpose func() error
	cleanup    func()
	closeOnce  sync.Once
}

var (
	_ Surface     = (*BrowserSurface)(nil)
	_ Snapshotter = (*BrowserSurface)(nil)
)

// OpenSurface opens html in a new page of browser and starts observing it.
// The page is loaded from a temporary file so that file:// image paths
// resolve.
func OpenSurface(ctx context.Context, browser *Browser, html string, opts BrowserSurfaceOptions) (*BrowserSurface, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultViewportWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultViewportHeight
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	observe, err := assets.LoadScript(assets.ObserverScriptName)
	if err != nil {
		return nil, fmt.Errorf("loading observer script: %w", err)
	}
	geometry, err := assets.LoadScript(assets.GeometryScriptName)
	if err != nil {
		return nil, fmt.Errorf("loading geometry script: %w", err)
	}

	page, err := browser.newPage(ctx, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	s := &BrowserSurface{
		page:     page,
		timeout:  browser.Timeout(),
		mode:     opts.Mode,
		log:      opts.Logger,
		geometry: geometry,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	if err := s.open(ctx, html, observe); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.pump()
	return s, nil
}

func (s *BrowserSurface) open(ctx context.Context, html, observe string) error {
	// The binding survives navigation, so it is installed first.
	stop, err := s.page.Expose(signalBinding, s.onSignal)
	if err != nil {
		return fmt.Errorf("%w: exposing binding: %v", ErrPageCreate, err)
	}
	s.stopExpose = stop

	path, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return err
	}
	s.cleanup = cleanup

	page := s.page.Context(ctx).Timeout(s.timeout)
	if err := page.Navigate("file://" + path); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	installed, err := s.eval(ctx, observe, signalBinding, ContentSelector, s.mode == ScrollWindow)
	if err != nil {
		return err
	}
	if !installed.Bool() {
		return fmt.Errorf("%w: %s not found", ErrSurfaceEval, ContentSelector)
	}
	return nil
}

// Mode returns the surface's scroll mode.
func (s *BrowserSurface) Mode() ScrollMode {
	return s.mode
}

// ScrollOffset implements Surface.
func (s *BrowserSurface) ScrollOffset() float64 {
	return s.snapshot().Offset
}

// ViewportHeight implements Surface.
func (s *BrowserSurface) ViewportHeight() float64 {
	return s.snapshot().Viewport
}

// ScrollHeight implements Surface.
func (s *BrowserSurface) ScrollHeight() float64 {
	return s.snapshot().ScrollHeight
}

// Blocks implements Surface.
func (s *BrowserSurface) Blocks() []BlockRect {
	return s.snapshot().Blocks
}

// ScrollTo implements Surface. The browser clamps the offset.
func (s *BrowserSurface) ScrollTo(offset float64) {
	if _, err := s.eval(context.Background(), scrollScript, ContentSelector, s.mode == ScrollWindow, offset); err != nil {
		s.log.Debug("scroll failed", "offset", offset, "error", err)
	}
}

// Snapshot implements Snapshotter with one evaluation in the page.
func (s *BrowserSurface) Snapshot() Geometry {
	return s.snapshot()
}

// Subscribe implements Surface.
func (s *BrowserSurface) Subscribe(signal Signal, fn func()) func() {
	return s.hub.subscribe(signal, fn)
}

// Geometry measures the page.
func (s *BrowserSurface) Geometry(ctx context.Context) (Geometry, error) {
	res, err := s.eval(ctx, s.geometry, ContentSelector, s.mode == ScrollWindow)
	if err != nil {
		return Geometry{}, err
	}
	if res.Nil() {
		return Geometry{}, fmt.Errorf("%w: %s not found", ErrSurfaceEval, ContentSelector)
	}

	items := res.Get("blocks").Arr()
	g := Geometry{
		Offset:       res.Get("offset").Num(),
		Viewport:     res.Get("viewport").Num(),
		ScrollHeight: res.Get("scrollHeight").Num(),
		Blocks:       make([]BlockRect, len(items)),
	}
	for i, b := range items {
		g.Blocks[i] = BlockRect{
			ID:     b.Get("id").Str(),
			Top:    b.Get("top").Num(),
			Height: b.Get("height").Num(),
		}
	}
	return g, nil
}

// ReplaceContent swaps the rendered blocks for fragment. The page observer
// reports the change as a mutation signal.
func (s *BrowserSurface) ReplaceContent(ctx context.Context, fragment string) error {
	res, err := s.eval(ctx, replaceContentScript, ContentSelector, fragment)
	if err != nil {
		return err
	}
	if !res.Bool() {
		return fmt.Errorf("%w: %s not found", ErrSurfaceEval, ContentSelector)
	}
	return nil
}

// Close stops observing and closes the page. Calling it more than once is
// safe.
func (s *BrowserSurface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		_, _ = s.eval(context.Background(), disconnectScript)

		s.mu.Lock()
		stop, cleanup := s.stopExpose, s.cleanup
		s.stopExpose, s.cleanup = nil, nil
		s.mu.Unlock()

		if stop != nil {
			_ = stop()
		}
		err = s.page.Close()
		if cleanup != nil {
			cleanup()
		}
	})
	return err
}

// snapshot measures the page, falling back to the last good measurement
// when evaluation fails.
func (s *BrowserSurface) snapshot() Geometry {
	g, err := s.Geometry(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Debug("geometry unavailable", "error", err)
		return s.last
	}
	s.last = g
	return g
}

func (s *BrowserSurface) eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := s.page.Context(ctx).Timeout(s.timeout).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("%w: %v", ErrSurfaceEval, err)
	}
	return res.Value, nil
}

// onSignal receives observer notifications on rod's event goroutine. It only
// records the signal; dispatch happens on the pump goroutine so that
// subscribers may evaluate scripts on the page.
func (s *BrowserSurface) onSignal(kind gson.JSON) (any, error) {
	var signal Signal
	switch kind.Str() {
	case "scroll":
		signal = SignalScroll
	case "resize":
		signal = SignalResize
	case "mutation":
		signal = SignalMutation
	default:
		return nil, nil
	}

	s.pendingMu.Lock()
	s.pending[signal] = true
	s.pendingMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil, nil
}

// pump dispatches pending signals. Bursts collapse into one call per signal.
func (s *BrowserSurface) pump() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.pendingMu.Lock()
		pending := s.pending
		s.pending = [3]bool{}
		s.pendingMu.Unlock()

		for _, signal := range []Signal{SignalScroll, SignalResize, SignalMutation} {
			if pending[signal] {
				s.hub.emit(signal)
			}
		}
	}
}
