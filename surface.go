package mdview

import (
	"slices"
	"sync"
)

// ScrollMode selects the coordinate space a surface scrolls in.
type ScrollMode int

const (
	// ScrollContainer scrolls a dedicated content element.
	ScrollContainer ScrollMode = iota
	// ScrollWindow scrolls the whole viewport.
	ScrollWindow
)

// String returns the mode name used in config files and reports.
func (m ScrollMode) String() string {
	if m == ScrollWindow {
		return "window"
	}
	return "container"
}

// Signal identifies a class of surface notification.
type Signal int

const (
	// SignalScroll fires after the scroll offset changed.
	SignalScroll Signal = iota
	// SignalResize fires after the viewport or content box changed size.
	SignalResize
	// SignalMutation fires after rendered content was added or removed.
	SignalMutation
)

// BlockRect is the geometry of one rendered block.
// Top is expressed in the surface's scroll coordinates, so a block is at the
// top of the viewport exactly when ScrollOffset() == Top.
type BlockRect struct {
	ID     string
	Top    float64
	Height float64
}

// Surface is the rendered view a Controller keeps in sync.
// Implementations report geometry in one offset/height space regardless of
// whether the window or an inner container is scrolled.
type Surface interface {
	// ScrollOffset returns the current scroll offset.
	ScrollOffset() float64
	// ViewportHeight returns the visible height.
	ViewportHeight() float64
	// ScrollHeight returns the total scrollable content height.
	ScrollHeight() float64
	// ScrollTo scrolls to offset. Implementations clamp to the valid range.
	ScrollTo(offset float64)
	// Blocks returns the rendered blocks in document order.
	Blocks() []BlockRect
	// Subscribe registers fn for signal and returns a function removing it.
	Subscribe(signal Signal, fn func()) (unsubscribe func())
}

// Geometry is a snapshot of a surface's scroll state and block layout.
type Geometry struct {
	Offset       float64
	Viewport     float64
	ScrollHeight float64
	Blocks       []BlockRect
}

// Snapshotter is implemented by surfaces that can measure their whole
// geometry at once. Readers that need several values use it when present,
// so the values come from the same layout.
type Snapshotter interface {
	Snapshot() Geometry
}

// maxScrollOffset returns the largest offset the surface can scroll to.
func maxScrollOffset(s Surface) float64 {
	if sn, ok := s.(Snapshotter); ok {
		g := sn.Snapshot()
		return max(0, g.ScrollHeight-g.Viewport)
	}
	return max(0, s.ScrollHeight()-s.ViewportHeight())
}

// signalHub is a subscriber registry shared by the Surface implementations.
type signalHub struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[Signal]map[int]func()
}

func (h *signalHub) subscribe(signal Signal, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers == nil {
		h.subscribers = make(map[Signal]map[int]func())
	}
	id := h.nextID
	h.nextID++
	if h.subscribers[signal] == nil {
		h.subscribers[signal] = make(map[int]func())
	}
	h.subscribers[signal][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[signal], id)
			h.mu.Unlock()
		})
	}
}

func (h *signalHub) count(signal Signal) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[signal])
}

// emit calls the subscribers of signal in registration order. The registry
// lock is not held during the calls, so callbacks may subscribe or
// unsubscribe.
func (h *signalHub) emit(signal Signal) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subscribers[signal]))
	for id := range h.subscribers[signal] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subscribers[signal][id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
