package uiloop

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chikezeobi/uiloop/internal/handles"
	"github.com/chikezeobi/uiloop/runloop"
)

// Connection bridges the native message loop with the window registry and
// the task table. There is at most one per process, reachable via Get; it is
// bound to the thread that runs the message loop, and apart from the
// documented thread-safe entry points (NextWindowID, Executor.Execute,
// WakeTaskByID) its state must only be touched from that thread.
type Connection struct {
	loop runloop.Loop
	log  *Logger

	winMu   sync.Mutex
	windows map[WindowID]*WindowHandle
	nextWin atomic.Uint64

	looping atomic.Bool

	tasks *taskTable
}

// current is the process-wide connection. Native callbacks carry no
// application context, so they reach the connection through here.
var current atomic.Pointer[Connection]

// Get returns the process-wide connection, or nil when not connected.
func Get() *Connection {
	return current.Load()
}

// RunMessageLoop transfers control to the native loop and blocks the calling
// thread until TerminateMessageLoop is called. The calling thread becomes
// the loop-owning thread. On return the window registry is cleared and every
// still-registered timer callback has been released.
func (c *Connection) RunMessageLoop() error {
	if current.Load() != c {
		return ErrNotConnected
	}
	c.logger().Info().Log("message loop starting")
	c.looping.Store(true)
	err := c.loop.Run()
	c.looping.Store(false)
	c.clearWindows()
	c.logger().Info().Log("message loop exited")
	if err != nil {
		return fmt.Errorf("uiloop: message loop: %w", err)
	}
	return nil
}

// TerminateMessageLoop asks the native loop to stop at its next opportunity.
// Safe to call from a callback running on the loop thread; RunMessageLoop
// returns asynchronously.
func (c *Connection) TerminateMessageLoop() {
	c.loop.Stop()
}

// Close tears the connection down: stops the loop if it is still running,
// clears the window registry, unwires the work queue, and releases the
// process-wide slot so a later Connect can succeed. Safe to call while
// RunMessageLoop is still blocked: the registry clear then happens on the
// loop-owning thread, as part of the message loop's own exit path.
func (c *Connection) Close() {
	c.loop.Stop()
	if !c.looping.Load() {
		c.clearWindows()
	}
	if current.CompareAndSwap(c, nil) {
		spawnq.setWaker(nil)
		c.logger().Info().Log("connection closed")
	}
}

// NextWindowID atomically allocates a fresh window id. Never blocks; safe
// from any thread, including native callbacks. The first id is 1.
func (c *Connection) NextWindowID() WindowID {
	return WindowID(c.nextWin.Add(1))
}

// RegisterWindow inserts h under id. The id must be freshly allocated with
// NextWindowID; a duplicate registration returns ErrWindowExists.
func (c *Connection) RegisterWindow(id WindowID, h *WindowHandle) error {
	if h == nil {
		return fmt.Errorf("uiloop: registering window %d: nil handle", id)
	}
	c.winMu.Lock()
	defer c.winMu.Unlock()
	if _, ok := c.windows[id]; ok {
		return fmt.Errorf("uiloop: registering window %d: %w", id, ErrWindowExists)
	}
	c.windows[id] = h
	return nil
}

// WindowByID returns the handle registered under id, or nil when the window
// no longer exists (or never did).
func (c *Connection) WindowByID(id WindowID) *WindowHandle {
	c.winMu.Lock()
	defer c.winMu.Unlock()
	return c.windows[id]
}

// clearWindows drops every registry entry, releasing all window state.
// Runs on the loop-owning thread, at message-loop exit or Close.
func (c *Connection) clearWindows() {
	c.winMu.Lock()
	n := len(c.windows)
	c.windows = make(map[WindowID]*WindowHandle)
	c.winMu.Unlock()
	if n > 0 {
		c.logger().Debug().Int("windows", n).Log("window registry cleared")
	}
}

// WithWindow posts a mutation of the identified window to the loop-owning
// thread. If the window has been torn down by the time the closure runs,
// nothing happens: callbacks are expected to race with window teardown, and
// losing that race is not an error.
func WithWindow(id WindowID, f func(*Window)) {
	NewExecutor().Execute(func() {
		c := Get()
		if c == nil {
			return
		}
		if h := c.WindowByID(id); h != nil {
			h.With(f)
		}
	})
}

// SpawnTask stores t in the task table and immediately posts a wake for its
// slot, guaranteeing the task gets its first poll even if nothing else
// drives the loop. Returns the slot, which can be used with WakeTaskByID to
// poll the task again after it suspends.
func (c *Connection) SpawnTask(t Task) TaskSlot {
	if t == nil {
		panic("uiloop: nil task")
	}
	slot := c.tasks.add(t)
	c.logger().Debug().Uint64("slot", uint64(slot)).Log("task spawned")
	WakeTaskByID(slot)
	return slot
}

// Spawn is shorthand for spawning a task that runs fn once and completes.
func (c *Connection) Spawn(fn func()) TaskSlot {
	if fn == nil {
		panic("uiloop: nil task func")
	}
	return c.SpawnTask(funcTask(fn))
}

// WakeTaskByID posts a request to poll the slot on the loop-owning thread.
// Safe from any thread, including native callbacks. Waking a completed or
// unknown slot is a no-op.
func WakeTaskByID(slot TaskSlot) {
	NewExecutor().Execute(func() {
		if c := Get(); c != nil {
			c.tasks.pollBySlot(slot)
		}
	})
}

// postWake schedules a drain of the work queue on the loop-owning thread.
// The drain closure rides the same boxed-token timer protocol as user
// timers: a zero-interval one-shot whose release frees the box after the
// single fire.
func (c *Connection) postWake() {
	info := handles.Register(func() { spawnq.run() })
	err := c.loop.AddTimer(c.loop.Now(), 0, timerFire, runloop.TimerContext{
		Info:    info,
		Release: timerRelease,
	})
	if err != nil {
		// Loop already torn down; the queued work waits for the next
		// connection to wire a waker.
		c.logger().Warning().Err(err).Log("dropping work-queue wake")
	}
}

func (c *Connection) logger() *Logger {
	if c.log != nil {
		return c.log
	}
	return activeLogger()
}
