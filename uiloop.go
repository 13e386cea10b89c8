// Package uiloop bridges a native, foreign-owned event loop with an
// application-level task scheduler and a registry of live windows, without
// CGO: the macOS binding goes through purego.
//
// The model is a single per-process Connection with hard thread affinity:
// exactly one thread runs the message loop, and that thread is the only one
// that mutates window state, polls tasks, or runs timer callbacks. Other
// threads interact through three thread-safe entry points: allocating window
// ids, posting closures through the Executor, and waking tasks by slot.
//
// Typical use:
//
//	conn, err := uiloop.Connect()
//	if err != nil {
//		// ...
//	}
//	conn.Spawn(func() { /* runs on the loop thread */ })
//	conn.ScheduleTimer(time.Second, func() { /* repeats */ })
//	err = conn.RunMessageLoop() // blocks until TerminateMessageLoop
package uiloop

import (
	"fmt"

	"github.com/chikezeobi/uiloop/runloop"
)

type options struct {
	loop runloop.Loop
	log  *Logger
}

// Option configures Connect.
type Option interface {
	apply(*options) error
}

type optionFunc func(*options) error

func (f optionFunc) apply(o *options) error { return f(o) }

// WithLoop runs the connection against l instead of the platform-default
// native loop. Tests use this with runloop.NewPortable.
func WithLoop(l runloop.Loop) Option {
	return optionFunc(func(o *options) error {
		if l == nil {
			return fmt.Errorf("uiloop: WithLoop: nil loop")
		}
		o.loop = l
		return nil
	})
}

// WithLogger gives the connection its own structured logger, overriding the
// package-wide one for events attributed to this connection.
func WithLogger(l *Logger) Option {
	return optionFunc(func(o *options) error {
		o.log = l
		return nil
	})
}

// Connect establishes the process-wide connection. It primes the work queue
// (idempotent; work posted before Connect stays queued and is drained once
// the loop runs), performs one-time native setup, and installs the
// connection where Get and native callbacks can reach it. Call Connect on
// the thread that will run the message loop.
//
// Returns ErrAlreadyConnected if a connection already exists, or the native
// setup failure when the underlying platform rejects it.
func Connect(opts ...Option) (*Connection, error) {
	var o options
	for _, opt := range opts {
		if err := opt.apply(&o); err != nil {
			return nil, err
		}
	}

	loop := o.loop
	if loop == nil {
		var err error
		loop, err = runloop.New()
		if err != nil {
			return nil, fmt.Errorf("uiloop: creating native loop: %w", err)
		}
	}

	c := &Connection{
		loop:    loop,
		log:     o.log,
		windows: make(map[WindowID]*WindowHandle),
		tasks:   newTaskTable(),
	}

	if !current.CompareAndSwap(nil, c) {
		return nil, ErrAlreadyConnected
	}

	// One-time native setup, e.g. declaring the process a regular
	// foreground application on macOS.
	if s, ok := loop.(interface{ Setup() error }); ok {
		if err := s.Setup(); err != nil {
			current.CompareAndSwap(c, nil)
			return nil, fmt.Errorf("uiloop: native setup: %w", err)
		}
	}

	spawnq.setWaker(c.postWake)
	// Prime the queue; there may be work posted before Connect.
	spawnq.run()

	c.logger().Info().Log("connected")
	return c, nil
}
