package mdview

// Executor performs line-addressed scrolls on a surface.
type Executor struct {
	surface Surface
}

// NewExecutor returns an Executor scrolling s.
func NewExecutor(s Surface) *Executor {
	return &Executor{surface: s}
}

// ScrollTo scrolls so that line is at the top of the viewport.
// Lines at or below zero scroll to the top and always succeed. Otherwise the
// line is resolved through mapper and the locator; if either step fails
// nothing is scrolled and false is returned.
func (e *Executor) ScrollTo(line int, mapper LineMapper) bool {
	if line <= 0 {
		e.surface.ScrollTo(0)
		return true
	}
	if mapper == nil {
		return false
	}

	pos, ok := mapper.PositionFromLine(line)
	if !ok {
		return false
	}
	offset, ok := PositionOf(e.surface, pos.BlockID, pos.Progress)
	if !ok {
		return false
	}

	e.surface.ScrollTo(offset)
	return true
}

// ScrollToEnd scrolls to the maximum valid offset and returns it.
func (e *Executor) ScrollToEnd() float64 {
	offset := maxScrollOffset(e.surface)
	e.surface.ScrollTo(offset)
	return offset
}

// CurrentLine resolves the current scroll position to a source line.
func (e *Executor) CurrentLine(mapper LineMapper) (int, bool) {
	if mapper == nil {
		return 0, false
	}
	pos, ok := Locate(e.surface)
	if !ok {
		return 0, false
	}
	return mapper.LineFromBlock(pos.BlockID, pos.Progress)
}
