package runloop

import (
	"container/heap"
	"sync"
	"time"
)

// PortableLoop is an in-process Loop implementation backed by a timer heap
// and a channel wakeup. It is the default loop on platforms without a native
// run-loop binding, and the loop of choice under test.
//
// The goroutine that calls Run becomes the loop-owning thread: all fires and
// releases happen there. AddTimer and Stop are safe from any goroutine.
type PortableLoop struct {
	mu      sync.Mutex
	timers  timerHeap
	wake    chan struct{}
	epoch   time.Time
	nextID  uintptr
	running bool
	stopped bool
}

// NewPortable creates a portable loop. Its clock starts at zero.
func NewPortable() *PortableLoop {
	return &PortableLoop{
		wake:  make(chan struct{}, 1),
		epoch: time.Now(),
	}
}

// Now returns seconds elapsed on the loop's monotonic clock.
func (l *PortableLoop) Now() float64 {
	return time.Since(l.epoch).Seconds()
}

// AddTimer arms a timer. If the loop has already terminated the context is
// released immediately and ErrTerminated is returned.
func (l *PortableLoop) AddTimer(fireAt, interval float64, fire TimerFunc, ctx TimerContext) error {
	if fire == nil {
		releaseContext(ctx)
		return ErrNilFire
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		releaseContext(ctx)
		return ErrTerminated
	}
	l.nextID++
	t := &portableTimer{
		id:       l.nextID,
		fireAt:   fireAt,
		interval: interval,
		fire:     fire,
		ctx:      ctx,
	}
	heap.Push(&l.timers, t)
	l.mu.Unlock()

	l.wakeup()
	return nil
}

// Run blocks until Stop is called, firing timers as they come due. On exit
// every still-armed timer's context is released exactly once. Stopping a loop
// that never ran is allowed, the same as the native loops tolerate it: a Run
// after (or racing) Stop returns immediately with no error.
func (l *PortableLoop) Run() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrRunning
	}
	if l.stopped {
		// Stop already released any armed timers.
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()

	for {
		l.mu.Lock()
		if l.stopped {
			remaining := l.timers
			l.timers = nil
			l.running = false
			l.mu.Unlock()
			// Happens-after the last fire: we are on the loop thread and
			// nothing else fires timers.
			for _, t := range remaining {
				releaseContext(t.ctx)
			}
			return nil
		}
		hasTimer := len(l.timers) > 0
		var wait time.Duration
		if hasTimer {
			wait = time.Duration((l.timers[0].fireAt - l.Now()) * float64(time.Second))
		}
		l.mu.Unlock()

		if hasTimer && wait <= 0 {
			l.fireDue()
			continue
		}

		if !hasTimer {
			<-l.wake
			continue
		}

		tm := time.NewTimer(wait)
		select {
		case <-l.wake:
			tm.Stop()
		case <-tm.C:
		}
	}
}

// Stop requests loop exit. If Run is active the loop thread performs the
// teardown (and releases armed timers); if the loop never ran, Stop releases
// them here.
func (l *PortableLoop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	var remaining timerHeap
	if !l.running {
		remaining = l.timers
		l.timers = nil
	}
	l.mu.Unlock()

	for _, t := range remaining {
		releaseContext(t.ctx)
	}
	l.wakeup()
}

// fireDue pops and fires every timer whose fire date has passed. Repeating
// timers are re-armed relative to the time they actually fired; one-shot
// timers are released after their single fire.
func (l *PortableLoop) fireDue() {
	for {
		l.mu.Lock()
		if l.stopped || len(l.timers) == 0 {
			l.mu.Unlock()
			return
		}
		t := l.timers[0]
		if t.fireAt > l.Now() {
			l.mu.Unlock()
			return
		}
		heap.Pop(&l.timers)
		l.mu.Unlock()

		t.fire(t.id, t.ctx.Info)

		if t.interval > 0 {
			l.mu.Lock()
			if l.stopped {
				l.mu.Unlock()
				releaseContext(t.ctx)
			} else {
				t.fireAt = l.Now() + t.interval
				heap.Push(&l.timers, t)
				l.mu.Unlock()
			}
		} else {
			releaseContext(t.ctx)
		}
	}
}

func (l *PortableLoop) wakeup() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

type portableTimer struct {
	id       uintptr
	fireAt   float64
	interval float64
	fire     TimerFunc
	ctx      TimerContext
	index    int
}

// timerHeap is a min-heap ordered by fire date, ties broken by arm order.
type timerHeap []*portableTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*portableTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
