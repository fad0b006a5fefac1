package mdview

import "sync"

// serialQueue runs functions one at a time in submission order.
// A function submitted while another is running, from any goroutine or
// re-entrantly from the running function itself, is queued and executed by
// the goroutine currently draining the queue before that goroutine returns.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func (q *serialQueue) do(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true

	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.run(next)

		q.mu.Lock()
	}
	q.running = false
	q.mu.Unlock()
}

// run executes fn, resetting the queue if it panics so later submissions
// are not stranded behind a dead drain loop.
func (q *serialQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.pending = nil
			q.running = false
			q.mu.Unlock()
			panic(r)
		}
	}()
	fn()
}
