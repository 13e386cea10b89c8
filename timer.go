package uiloop

import (
	"fmt"
	"time"

	"github.com/chikezeobi/uiloop/internal/handles"
	"github.com/chikezeobi/uiloop/runloop"
)

// ScheduleTimer registers callback to fire repeatedly every interval,
// starting interval from now, on the loop-owning thread. An interval of 0
// fires the callback once, as soon as the loop gets to it, and then releases
// it. Timers are not individually cancellable; they live until the message
// loop is torn down.
//
// The callback is boxed exactly once behind an opaque token; the loop only
// ever sees that token plus the package's fire and release trampolines. The
// release trampoline consumes the box, so it can run at most once, and a
// fire after release finds nothing to call.
func (c *Connection) ScheduleTimer(interval time.Duration, callback func()) error {
	if callback == nil {
		return ErrNilCallback
	}
	if interval < 0 {
		return ErrNegativeInterval
	}

	secs := interval.Seconds()
	info := handles.Register(callback)
	err := c.loop.AddTimer(c.loop.Now()+secs, secs, timerFire, runloop.TimerContext{
		Info:    info,
		Release: timerRelease,
	})
	if err != nil {
		// AddTimer released the context; the box is already gone.
		return fmt.Errorf("uiloop: scheduling timer: %w", err)
	}

	c.logger().Debug().
		Dur("interval", interval).
		Log("timer scheduled")
	return nil
}

// timerFire reconstitutes the boxed callback from its opaque token and
// invokes it in place. Runs on the loop-owning thread.
func timerFire(_ uintptr, info uintptr) {
	if cb, ok := handles.Lookup(info).(func()); ok {
		cb()
	}
}

// timerRelease takes ownership of the boxed callback out of the registry and
// drops it. The take-once registry makes a second release a no-op by
// construction.
func timerRelease(info uintptr) {
	handles.Take(info)
}
