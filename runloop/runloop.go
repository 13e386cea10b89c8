// Package runloop provides the low-level run-loop layer consumed by the
// uiloop connection: a small Loop interface modeled on the native run-loop
// APIs (Core Foundation on macOS), a portable in-process implementation, and
// a purego-based Core Foundation binding on darwin.
//
// The only timer protocol a Loop understands is the C-style one: a fire
// date, a repeat interval, a fire callback, and an untyped context carrying
// an opaque info pointer plus a release callback. The release callback is
// invoked exactly once per timer, after its last fire, including when the
// timer is torn down with the loop. Higher layers build typed callbacks on
// top of this by boxing closures behind the info token.
package runloop

import "errors"

// Common errors
var (
	// ErrRunning indicates Run was called while the loop is already running.
	ErrRunning = errors.New("runloop: loop already running")

	// ErrTerminated indicates the loop has been stopped and cannot be used.
	ErrTerminated = errors.New("runloop: loop terminated")

	// ErrNilFire indicates a timer was added without a fire callback.
	ErrNilFire = errors.New("runloop: nil timer fire callback")
)

// TimerFunc is the fire half of the timer protocol. timer is an opaque
// reference to the native timer; info is the opaque context token the timer
// was created with.
type TimerFunc func(timer uintptr, info uintptr)

// TimerContext mirrors the context structure of the native timer APIs: the
// opaque info token handed back to every fire, and the release callback that
// gives up ownership of whatever info refers to.
type TimerContext struct {
	Info    uintptr
	Release func(info uintptr)
}

// Loop is the native event loop the connection bridges to.
//
// Run and Stop follow the foreign loop's contract: Run blocks the calling
// thread (which becomes the loop-owning thread) until Stop is requested;
// Stop only requests termination and may be called from a callback running
// on the loop thread. Stop before Run is benign, as it is for the native
// loops: Run then returns immediately with no error. Only timer arming is
// refused after termination (ErrTerminated from AddTimer).
// Now reports the loop's absolute-time clock in seconds.
// AddTimer is safe to call from any thread; everything else the loop invokes
// (timer fires, releases) happens on the loop-owning thread.
type Loop interface {
	// Run transfers control to the loop until Stop is called.
	Run() error

	// Stop requests the loop to exit at its next opportunity.
	Stop()

	// Now returns the current time in seconds on the loop's clock.
	Now() float64

	// AddTimer arms a timer firing at fireAt (in Now's timebase) and then
	// every interval seconds. An interval <= 0 means the timer fires once
	// and is released. ctx.Release runs exactly once per added timer, even
	// when the loop is torn down before or between fires. AddTimer never
	// leaks ctx: on error the context is released before returning.
	AddTimer(fireAt, interval float64, fire TimerFunc, ctx TimerContext) error
}

// releaseContext invokes a context's release callback, if any.
func releaseContext(ctx TimerContext) {
	if ctx.Release != nil {
		ctx.Release(ctx.Info)
	}
}
