package mdview

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdview/internal/process"
)

// DefaultBrowserTimeout bounds page loads and script evaluation.
const DefaultBrowserTimeout = 30 * time.Second

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithBrowserBin uses the Chrome binary at path instead of the one found by
// ROD_BROWSER_BIN or downloaded by rod.
func WithBrowserBin(path string) BrowserOption {
	return func(b *Browser) {
		b.bin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, which containers usually
// require.
func WithNoSandbox(enabled bool) BrowserOption {
	return func(b *Browser) {
		b.noSandbox = enabled
	}
}

// WithBrowserLogger sets the logger used for launch and teardown.
func WithBrowserLogger(l Logger) BrowserOption {
	return func(b *Browser) {
		if l != nil {
			b.log = l
		}
	}
}

// Browser is a lazily launched headless Chrome instance.
// Rod downloads Chromium on first run if no binary is found.
type Browser struct {
	mu        sync.Mutex
	timeout   time.Duration
	bin       string
	noSandbox bool
	log       Logger
	launcher  *launcher.Launcher
	browser   *rod.Browser
	closed    bool
}

// NewBrowser returns a Browser that launches Chrome on first use.
// timeout <= 0 uses DefaultBrowserTimeout.
func NewBrowser(timeout time.Duration, opts ...BrowserOption) *Browser {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	b := &Browser{timeout: timeout, log: nopLogger{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timeout returns the page operation timeout.
func (b *Browser) Timeout() time.Duration {
	return b.timeout
}

// Connect launches and connects to Chrome if that has not happened yet.
func (b *Browser) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ensureBrowser()
}

// ensureBrowser must be called with b.mu held.
func (b *Browser) ensureBrowser() error {
	if b.closed {
		return fmt.Errorf("%w: browser closed", ErrBrowserConnect)
	}
	if b.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true)

	bin := b.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if b.noSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(l.PID())
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.launcher = l
	b.browser = browser
	b.log.Info("browser launched", "pid", l.PID())
	return nil
}

// Version returns the product string of the connected browser.
func (b *Browser) Version() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureBrowser(); err != nil {
		return "", err
	}
	v, err := b.browser.Version()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return v.Product, nil
}

// newPage opens a blank page sized to width x height CSS pixels.
func (b *Browser) newPage(ctx context.Context, width, height int) (*rod.Page, error) {
	b.mu.Lock()
	if err := b.ensureBrowser(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	browser := b.browser
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}
	return page, nil
}

// Close shuts the browser down and kills its process tree. Calling it more
// than once is safe.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.browser == nil {
		return nil
	}

	err := b.browser.Close()
	b.browser = nil

	if b.launcher != nil {
		process.KillProcessGroup(b.launcher.PID())
		b.launcher.Kill()
		b.launcher = nil
	}
	b.log.Debug("browser closed")
	return err
}
