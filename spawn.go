package uiloop

import (
	"sync"

	"github.com/eapache/queue"
)

// spawnQueue is the process-wide FIFO of deferred closures drained on the
// loop-owning thread. Submission is safe from any thread; nothing ever runs
// inline at submission time, which is what preserves the single-threaded
// affinity of window and task state. Work posted here executes in FIFO order
// relative to other posted work; interleaving with native events is up to
// the loop.
type spawnQueue struct {
	mu          sync.Mutex
	fifo        *queue.Queue
	waker       func()
	wakePending bool
}

// The one process-wide queue, mirroring the one process-wide connection.
// Work posted before a connection exists stays queued until one is created.
var spawnq = &spawnQueue{fifo: queue.New()}

// execute appends fn and, if a waker is wired and no wake is already in
// flight, asks the loop to drain.
func (q *spawnQueue) execute(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.fifo.Add(fn)
	w := q.waker
	wake := w != nil && !q.wakePending
	if wake {
		q.wakePending = true
	}
	q.mu.Unlock()
	if wake {
		w()
	}
}

// run drains all currently queued work. Must run on the loop-owning thread.
// Returns the number of closures executed. A panic in posted work propagates
// on the loop thread; it is a programming error, not something to swallow.
func (q *spawnQueue) run() int {
	q.mu.Lock()
	q.wakePending = false
	q.mu.Unlock()

	n := 0
	for {
		q.mu.Lock()
		if q.fifo.Length() == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.fifo.Remove().(func())
		q.mu.Unlock()
		n++
		fn()
	}
}

// setWaker wires (or, with nil, unwires) the loop-side drain trigger. If work
// is already queued the new waker is invoked immediately.
func (q *spawnQueue) setWaker(w func()) {
	q.mu.Lock()
	q.waker = w
	wake := w != nil && q.fifo.Length() > 0 && !q.wakePending
	if wake {
		q.wakePending = true
	}
	q.mu.Unlock()
	if wake {
		w()
	}
}

// Executor posts closures to the loop-owning thread through the process-wide
// work queue. The zero value is ready to use, from any goroutine.
type Executor struct{}

// NewExecutor returns an executor bound to the process-wide work queue.
func NewExecutor() Executor { return Executor{} }

// Execute queues fn to run later on the loop-owning thread, in FIFO order
// relative to other posted work. It never runs fn inline.
func (Executor) Execute(fn func()) {
	spawnq.execute(fn)
}
