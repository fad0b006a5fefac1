package mdview

import "time"

// frameInterval approximates one display refresh at 60Hz.
const frameInterval = 16 * time.Millisecond

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Scheduler runs callbacks later. Controllers take one so tests can drive
// time by hand.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// RequestFrame runs fn on the next animation frame.
	RequestFrame(fn func()) Timer
}

// clockScheduler implements Scheduler on the runtime timer heap.
type clockScheduler struct {
	frame time.Duration
}

// NewScheduler returns a Scheduler backed by time.AfterFunc. Frames are
// emulated with a fixed interval; frame <= 0 uses 16ms.
func NewScheduler(frame time.Duration) Scheduler {
	if frame <= 0 {
		frame = frameInterval
	}
	return &clockScheduler{frame: frame}
}

func (s *clockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (s *clockScheduler) RequestFrame(fn func()) Timer {
	return time.AfterFunc(s.frame, fn)
}
