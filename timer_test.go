package uiloop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/chikezeobi/uiloop/internal/handles"
	"github.com/chikezeobi/uiloop/runloop"
)

func TestScheduleTimer_RepeatingFiresWithinTolerance(t *testing.T) {
	c, _ := connect(t)

	baseline := handles.Count()

	var fires atomic.Int64
	if err := c.ScheduleTimer(100*time.Millisecond, func() {
		fires.Add(1)
	}); err != nil {
		t.Fatalf("ScheduleTimer failed: %v", err)
	}

	stop := runLoop(t, c)
	time.Sleep(350 * time.Millisecond)
	stop()

	got := fires.Load()
	if got < 2 || got > 4 {
		t.Errorf("fires in 0.35s: got %d, want 2..4", got)
	}

	// Loop teardown released the boxed callback (and any transient
	// work-queue wakes) exactly once each: nothing may remain registered.
	if n := handles.Count(); n != baseline {
		t.Errorf("registered handles after teardown: got %d, want %d", n, baseline)
	}
}

func TestScheduleTimer_ZeroIntervalFiresOnce(t *testing.T) {
	c, _ := connect(t)

	var fires atomic.Int64
	fired := make(chan struct{}, 1)
	if err := c.ScheduleTimer(0, func() {
		fires.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("ScheduleTimer failed: %v", err)
	}

	stop := runLoop(t, c)
	defer stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("zero-interval timer never fired")
	}
	// A re-armed zero-interval timer (a bug) would fire again here.
	time.Sleep(50 * time.Millisecond)

	if got := fires.Load(); got != 1 {
		t.Errorf("zero-interval timer fired %d times, want exactly 1", got)
	}
}

func TestScheduleTimer_ValidatesArguments(t *testing.T) {
	c, _ := connect(t)

	if err := c.ScheduleTimer(time.Second, nil); err != ErrNilCallback {
		t.Errorf("nil callback: got %v, want ErrNilCallback", err)
	}
	if err := c.ScheduleTimer(-time.Second, func() {}); err != ErrNegativeInterval {
		t.Errorf("negative interval: got %v, want ErrNegativeInterval", err)
	}
}

func TestScheduleTimer_TornDownLoopDoesNotLeak(t *testing.T) {
	l := runloop.NewPortable()
	c, err := Connect(WithLoop(l))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(c.Close)

	l.Stop()

	baseline := handles.Count()
	if err := c.ScheduleTimer(time.Second, func() {}); err == nil {
		t.Error("ScheduleTimer on a terminated loop should fail")
	}
	if n := handles.Count(); n != baseline {
		t.Errorf("boxed callback leaked: handles %d, want %d", n, baseline)
	}
}

func TestScheduleTimer_CallbacksSeeLoopThreadState(t *testing.T) {
	c, _ := connect(t)

	id := c.NextWindowID()
	if err := c.RegisterWindow(id, NewWindowHandle(id, "clock", 200, 50)); err != nil {
		t.Fatalf("RegisterWindow failed: %v", err)
	}

	titled := make(chan struct{})
	err := c.ScheduleTimer(10*time.Millisecond, func() {
		// Timer callbacks run on the loop thread, so mutating window
		// state directly through the handle is legal here.
		if h := c.WindowByID(id); h != nil {
			h.With(func(w *Window) {
				if w.Title() == "clock" {
					w.SetTitle("tick")
					close(titled)
				}
			})
		}
	})
	if err != nil {
		t.Fatalf("ScheduleTimer failed: %v", err)
	}

	stop := runLoop(t, c)
	defer stop()

	select {
	case <-titled:
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback never observed the window")
	}
}
