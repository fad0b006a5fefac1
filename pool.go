package mdview

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// BrowserPool hands out up to n browsers for parallel viewer sessions.
// Browsers are created on first acquire; Chrome itself starts on first use.
type BrowserPool struct {
	size     int
	timeout  time.Duration
	opts     []BrowserOption
	browsers []*Browser
	sem      chan *Browser
	mu       sync.Mutex
	created  int
	closed   bool
	done     chan struct{}
}

// NewBrowserPool creates a pool with capacity for n browsers. timeout and
// opts are passed to NewBrowser.
func NewBrowserPool(n int, timeout time.Duration, opts ...BrowserOption) *BrowserPool {
	if n < 1 {
		n = 1
	}
	return &BrowserPool{
		size:     n,
		timeout:  timeout,
		opts:     opts,
		browsers: make([]*Browser, 0, n),
		sem:      make(chan *Browser, n),
		done:     make(chan struct{}),
	}
}

// Acquire returns an idle browser, creating one if the pool is not full.
// It blocks until a browser is released, ctx is done or the pool is closed.
func (p *BrowserPool) Acquire(ctx context.Context) (*Browser, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	select {
	case b := <-p.sem:
		p.mu.Unlock()
		return b, nil
	default:
	}
	if p.created < p.size {
		p.created++
		b := NewBrowser(p.timeout, p.opts...)
		p.browsers = append(p.browsers, b)
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	select {
	case b := <-p.sem:
		return b, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns b to the pool. Releasing after Close is a no-op.
func (p *BrowserPool) Release(b *Browser) {
	if b == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.sem <- b:
	default:
	}
}

// Close closes every browser the pool created.
// Returns an aggregated error if several browsers fail to close.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	browsers := p.browsers
	p.mu.Unlock()

	var errs []error
	for _, b := range browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *BrowserPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// An explicit positive workers value wins; otherwise half of GOMAXPROCS
// (adjusted by automaxprocs in containers), bounded by MinPoolSize and
// MaxPoolSize.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	return min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)
}
