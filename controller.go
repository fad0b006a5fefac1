package mdview

import (
	"sync"
	"time"
)

// Controller timing defaults.
const (
	// DefaultLockDuration is how long scroll signals are treated as echoes
	// of the controller's own scroll.
	DefaultLockDuration = 300 * time.Millisecond

	// DefaultUserScrollDebounce coalesces bursts of user scroll signals.
	DefaultUserScrollDebounce = 100 * time.Millisecond
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLockDuration sets the self-scroll suppression window.
// Panics if d is not positive.
func WithLockDuration(d time.Duration) ControllerOption {
	if d <= 0 {
		panic("mdview: WithLockDuration duration must be positive")
	}
	return func(c *Controller) {
		c.lockDuration = d
	}
}

// WithUserScrollDebounce sets the delay before a user scroll is reported.
// Zero reports synchronously. Panics if d is negative.
func WithUserScrollDebounce(d time.Duration) ControllerOption {
	if d < 0 {
		panic("mdview: WithUserScrollDebounce duration must not be negative")
	}
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithUserScrollHandler registers the upstream notification for lines the
// user scrolled to. It only fires for scrolls observed while tracking.
func WithUserScrollHandler(fn func(line int)) ControllerOption {
	return func(c *Controller) {
		c.onUserScroll = fn
	}
}

// WithTargetDegradedHandler registers a notification fired when streaming
// completed without the requested line ever becoming reachable, after the
// view fell back to the end of the document.
func WithTargetDegradedHandler(fn func(requested, adopted int)) ControllerOption {
	return func(c *Controller) {
		c.onDegraded = fn
	}
}

// WithScheduler replaces the timer implementation.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller keeps a surface's scroll position and a source line in sync.
//
// Every input (host call, surface signal, timer) runs as one transition of a
// state machine. Transitions never overlap: an input arriving while another
// transition runs, including a scroll signal raised synchronously by the
// controller's own ScrollTo, is applied right after it. Upstream handlers
// and surface subscribers may call back into it: the query methods read a
// snapshot that is never held across a surface call.
type Controller struct {
	queue serialQueue

	// view guards writes of state, targetLine and mapper. Transitions are
	// their only writers, so transitions read them without locking.
	view sync.RWMutex

	surface Surface
	exec    *Executor
	mapper  LineMapper
	sched   Scheduler
	log     Logger

	lockDuration time.Duration
	debounce     time.Duration
	onUserScroll func(line int)
	onDegraded   func(requested, adopted int)

	state        State
	targetLine   int
	scrollHeight float64

	lockTimer     Timer
	lockGen       uint64
	debounceTimer Timer
	debounceGen   uint64
	frameTimer    Timer
	frameGen      uint64

	resizePending   bool
	mutationPending bool

	unsubscribe []func()
	started     bool
	disposed    bool
}

// NewController creates a Controller for surface, resolving lines through
// mapper. Call Start to begin observing the surface.
func NewController(surface Surface, mapper LineMapper, opts ...ControllerOption) *Controller {
	c := &Controller{
		surface:      surface,
		exec:         NewExecutor(surface),
		mapper:       mapper,
		sched:        NewScheduler(0),
		log:          nopLogger{},
		lockDuration: DefaultLockDuration,
		debounce:     DefaultUserScrollDebounce,
		state:        StateInitial,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start subscribes to the surface's scroll, resize and mutation signals.
// Calling it again has no effect.
func (c *Controller) Start() {
	c.transition(func() func() {
		if c.started {
			return nil
		}
		c.started = true
		c.scrollHeight = c.surface.ScrollHeight()
		c.unsubscribe = append(c.unsubscribe,
			c.surface.Subscribe(SignalScroll, c.handleScroll),
			c.surface.Subscribe(SignalResize, c.handleResize),
			c.surface.Subscribe(SignalMutation, c.handleMutation),
		)
		return nil
	})
}

// Dispose cancels all timers and removes all listeners. The controller
// ignores every call afterwards.
func (c *Controller) Dispose() {
	c.transition(func() func() {
		c.cancelLock()
		c.cancelDebounce()
		c.cancelFrame()
		for _, unsubscribe := range c.unsubscribe {
			if unsubscribe != nil {
				unsubscribe()
			}
		}
		c.unsubscribe = nil
		c.disposed = true
		c.log.Debug("scroll sync disposed")
		return nil
	})
}

// Reset forgets the target line and returns to the initial state, keeping
// listeners attached. Use it when the document is replaced.
func (c *Controller) Reset() {
	c.transition(func() func() {
		c.cancelLock()
		c.cancelDebounce()
		c.cancelFrame()
		c.resizePending = false
		c.mutationPending = false
		c.setTarget(0)
		c.scrollHeight = c.surface.ScrollHeight()
		c.setState(StateInitial)
		return nil
	})
}

// SetTargetLine makes line the target and scrolls to it when it can be
// resolved. Otherwise the line is kept and retried as content arrives.
// Negative lines are treated as 0.
func (c *Controller) SetTargetLine(line int) {
	c.transition(func() func() {
		c.setTarget(max(0, line))
		c.cancelDebounce()
		c.applyTarget()
		return nil
	})
}

// SetLineMapper replaces the mapper, typically after a new render of the
// same document was published. State and target are unchanged.
func (c *Controller) SetLineMapper(m LineMapper) {
	c.transition(func() func() {
		c.view.Lock()
		c.mapper = m
		c.view.Unlock()
		return nil
	})
}

// OnStreamingComplete tells the controller no more content will arrive for
// the current render. A target still waiting to be restored is scrolled to
// if possible; otherwise the view goes to the end of the document and the
// line found there becomes the target.
func (c *Controller) OnStreamingComplete() {
	c.transition(func() func() {
		if c.state != StateRestoring {
			return nil
		}
		if c.exec.ScrollTo(c.targetLine, c.mapper) {
			c.lock()
			return nil
		}

		requested := c.targetLine
		offset := c.exec.ScrollToEnd()
		if line, ok := c.exec.CurrentLine(c.mapper); ok {
			c.setTarget(line)
		}
		c.lock()

		adopted := c.targetLine
		c.log.Warn("scroll target unreachable, fell back to document end",
			"requested", requested, "adopted", adopted, "offset", offset)
		if fn := c.onDegraded; fn != nil {
			return func() { fn(requested, adopted) }
		}
		return nil
	})
}

// State returns the current state. It does not wait for a running
// transition.
func (c *Controller) State() State {
	c.view.RLock()
	defer c.view.RUnlock()
	return c.state
}

// TargetLine returns the line the controller is keeping in view.
func (c *Controller) TargetLine() int {
	c.view.RLock()
	defer c.view.RUnlock()
	return c.targetLine
}

// CurrentLine resolves the surface's current scroll position to a source
// line. It returns false when no block or mapping is available.
func (c *Controller) CurrentLine() (int, bool) {
	c.view.RLock()
	mapper := c.mapper
	c.view.RUnlock()
	return c.exec.CurrentLine(mapper)
}

// transition runs fn as one step of the serial queue. The function fn
// returns, if any, is invoked once the step's state changes are published.
func (c *Controller) transition(fn func() func()) {
	c.queue.do(func() {
		if c.disposed {
			return
		}
		if notify := fn(); notify != nil {
			notify()
		}
	})
}

func (c *Controller) handleScroll() {
	c.transition(c.onScroll)
}

func (c *Controller) handleResize() {
	c.transition(func() func() {
		c.resizePending = true
		c.requestFrame()
		return nil
	})
}

func (c *Controller) handleMutation() {
	c.transition(func() func() {
		c.mutationPending = true
		c.requestFrame()
		return nil
	})
}

func (c *Controller) onScroll() func() {
	switch c.state {
	case StateTracking:
		line, ok := c.exec.CurrentLine(c.mapper)
		if !ok {
			return nil
		}
		c.setTarget(line)
		return c.scheduleReport()
	case StateLocked:
		if line, ok := c.exec.CurrentLine(c.mapper); ok {
			c.setTarget(line)
		}
	}
	return nil
}

// onFrame handles the resize and mutation signals coalesced since the last
// frame.
func (c *Controller) onFrame() func() {
	resized, mutated := c.resizePending, c.mutationPending
	c.resizePending, c.mutationPending = false, false

	height := c.surface.ScrollHeight()
	heightChanged := mutated && height != c.scrollHeight
	c.scrollHeight = height

	switch c.state {
	case StateRestoring:
		if mutated && c.exec.ScrollTo(c.targetLine, c.mapper) {
			c.lock()
		}
	case StateTracking, StateLocked:
		if heightChanged || resized {
			c.applyTarget()
		}
	}
	return nil
}

// applyTarget scrolls to the target line and locks, or moves to RESTORING
// when the line cannot be resolved yet.
func (c *Controller) applyTarget() {
	if c.exec.ScrollTo(c.targetLine, c.mapper) {
		c.lock()
		return
	}
	c.cancelLock()
	c.setState(StateRestoring)
}

// lock enters LOCKED and (re)starts the lock window.
func (c *Controller) lock() {
	c.cancelLock()
	c.setState(StateLocked)

	gen := c.lockGen
	c.lockTimer = c.sched.AfterFunc(c.lockDuration, func() {
		c.transition(func() func() {
			if gen != c.lockGen || c.state != StateLocked {
				return nil
			}
			c.lockTimer = nil
			c.setState(StateTracking)
			return nil
		})
	})
}

// scheduleReport arranges for the target line to be reported upstream.
func (c *Controller) scheduleReport() func() {
	fn := c.onUserScroll
	if fn == nil {
		return nil
	}
	if c.debounce == 0 {
		line := c.targetLine
		return func() { fn(line) }
	}

	c.cancelDebounce()
	gen := c.debounceGen
	c.debounceTimer = c.sched.AfterFunc(c.debounce, func() {
		c.transition(func() func() {
			if gen != c.debounceGen {
				return nil
			}
			c.debounceTimer = nil
			line := c.targetLine
			return func() { fn(line) }
		})
	})
	return nil
}

func (c *Controller) requestFrame() {
	if c.frameTimer != nil {
		return
	}
	c.frameGen++
	gen := c.frameGen
	c.frameTimer = c.sched.RequestFrame(func() {
		c.transition(func() func() {
			if gen != c.frameGen {
				return nil
			}
			c.frameTimer = nil
			return c.onFrame()
		})
	})
}

func (c *Controller) cancelLock() {
	c.lockGen++
	if c.lockTimer != nil {
		c.lockTimer.Stop()
		c.lockTimer = nil
	}
}

func (c *Controller) cancelDebounce() {
	c.debounceGen++
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

func (c *Controller) cancelFrame() {
	c.frameGen++
	if c.frameTimer != nil {
		c.frameTimer.Stop()
		c.frameTimer = nil
	}
}

func (c *Controller) setState(next State) {
	if c.state == next {
		return
	}
	c.log.Debug("scroll sync transition", "from", c.state.String(), "to", next.String(), "target", c.targetLine)
	c.view.Lock()
	c.state = next
	c.view.Unlock()
}

func (c *Controller) setTarget(line int) {
	c.view.Lock()
	c.targetLine = line
	c.view.Unlock()
}
