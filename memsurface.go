package mdview

import (
	"slices"
	"sync"
)

// MemoryBlock is one block of a MemorySurface layout.
type MemoryBlock struct {
	ID     string
	Height float64
}

// MemorySurface is an in-process Surface. Blocks are stacked from offset 0
// in order, so each block's top is the sum of the heights before it.
// Signals are delivered synchronously on the goroutine that caused them,
// after the surface's own lock has been released.
type MemorySurface struct {
	mu       sync.Mutex
	viewport float64
	offset   float64
	blocks   []MemoryBlock

	hub signalHub
}

// NewMemorySurface returns a surface with the given viewport height.
func NewMemorySurface(viewportHeight float64, blocks ...MemoryBlock) *MemorySurface {
	return &MemorySurface{
		viewport: max(0, viewportHeight),
		blocks:   slices.Clone(blocks),
	}
}

// ScrollOffset implements Surface.
func (s *MemorySurface) ScrollOffset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// ViewportHeight implements Surface.
func (s *MemorySurface) ViewportHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// ScrollHeight implements Surface. It is never smaller than the viewport.
func (s *MemorySurface) ScrollHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollHeightLocked()
}

// Blocks implements Surface.
func (s *MemorySurface) Blocks() []BlockRect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocksLocked()
}

// Snapshot implements Snapshotter.
func (s *MemorySurface) Snapshot() Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Geometry{
		Offset:       s.offset,
		Viewport:     s.viewport,
		ScrollHeight: s.scrollHeightLocked(),
		Blocks:       s.blocksLocked(),
	}
}

func (s *MemorySurface) blocksLocked() []BlockRect {
	rects := make([]BlockRect, len(s.blocks))
	top := 0.0
	for i, b := range s.blocks {
		rects[i] = BlockRect{ID: b.ID, Top: top, Height: b.Height}
		top += b.Height
	}
	return rects
}

// ScrollTo implements Surface. The offset is clamped to the valid range and
// a scroll signal is emitted only when the offset actually changed.
func (s *MemorySurface) ScrollTo(offset float64) {
	s.setOffset(offset)
}

// UserScroll moves the view as a user would. It behaves exactly like
// ScrollTo; the separate name keeps call sites readable.
func (s *MemorySurface) UserScroll(offset float64) {
	s.setOffset(offset)
}

// SetBlocks replaces the layout and emits a mutation signal.
func (s *MemorySurface) SetBlocks(blocks ...MemoryBlock) {
	s.mu.Lock()
	s.blocks = slices.Clone(blocks)
	scrolled := s.clampLocked()
	s.mu.Unlock()

	s.emitAfterLayout(scrolled, SignalMutation)
}

// AppendBlocks adds blocks at the end and emits a mutation signal.
func (s *MemorySurface) AppendBlocks(blocks ...MemoryBlock) {
	s.mu.Lock()
	s.blocks = append(s.blocks, blocks...)
	s.mu.Unlock()

	s.emit(SignalMutation)
}

// SetBlockHeight changes the height of block id and emits a mutation signal.
// It reports false if no such block exists.
func (s *MemorySurface) SetBlockHeight(id string, height float64) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.blocks, func(b MemoryBlock) bool { return b.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.blocks[i].Height = max(0, height)
	scrolled := s.clampLocked()
	s.mu.Unlock()

	s.emitAfterLayout(scrolled, SignalMutation)
	return true
}

// Resize changes the viewport height and emits a resize signal.
func (s *MemorySurface) Resize(viewportHeight float64) {
	s.mu.Lock()
	s.viewport = max(0, viewportHeight)
	scrolled := s.clampLocked()
	s.mu.Unlock()

	s.emitAfterLayout(scrolled, SignalResize)
}

// Subscribe implements Surface.
func (s *MemorySurface) Subscribe(signal Signal, fn func()) func() {
	return s.hub.subscribe(signal, fn)
}

// Subscribers returns the number of registered callbacks for signal.
func (s *MemorySurface) Subscribers(signal Signal) int {
	return s.hub.count(signal)
}

func (s *MemorySurface) setOffset(offset float64) {
	s.mu.Lock()
	next := min(max(0, offset), s.maxOffsetLocked())
	changed := next != s.offset
	s.offset = next
	s.mu.Unlock()

	if changed {
		s.emit(SignalScroll)
	}
}

// emitAfterLayout emits signal, preceded by a scroll signal when the layout
// change forced the offset back into range.
func (s *MemorySurface) emitAfterLayout(scrolled bool, signal Signal) {
	if scrolled {
		s.emit(SignalScroll)
	}
	s.emit(signal)
}

func (s *MemorySurface) emit(signal Signal) {
	s.hub.emit(signal)
}

// clampLocked pulls the offset back into range and reports whether it moved.
func (s *MemorySurface) clampLocked() bool {
	limit := s.maxOffsetLocked()
	if s.offset <= limit {
		return false
	}
	s.offset = limit
	return true
}

func (s *MemorySurface) maxOffsetLocked() float64 {
	return max(0, s.scrollHeightLocked()-s.viewport)
}

func (s *MemorySurface) scrollHeightLocked() float64 {
	total := 0.0
	for _, b := range s.blocks {
		total += b.Height
	}
	return max(total, s.viewport)
}
