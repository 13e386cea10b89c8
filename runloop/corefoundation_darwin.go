//go:build darwin && !ios && (amd64 || arm64)

package runloop

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

// Core Foundation / AppKit binding. The message loop itself is AppKit's
// ([NSApp run] / [NSApp stop:nil]); timers go straight to the thread's
// CFRunLoop, which is what NSApp runs internally.

const coreFoundationPath = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"
const appKitPath = "/System/Library/Frameworks/AppKit.framework/AppKit"

// NSApplicationActivationPolicyRegular: ordinary app, appears in the Dock.
const nsActivationPolicyRegular = 0

var (
	cfOnce    sync.Once
	cfLoadErr error

	cfRunLoopGetCurrent      func() uintptr
	cfRunLoopAddTimer        func(rl, timer, mode uintptr)
	cfRunLoopWakeUp          func(rl uintptr)
	cfRunLoopTimerCreate     func(allocator uintptr, fireDate, interval float64, flags uint64, order int64, callout uintptr, ctx unsafe.Pointer) uintptr
	cfAbsoluteTimeGetCurrent func() float64

	kCFRunLoopCommonModes uintptr
)

// cfRunLoopTimerContext mirrors CFRunLoopTimerContext. Only info and release
// are used; Core Foundation copies the struct at timer creation.
type cfRunLoopTimerContext struct {
	version         int64
	info            uintptr
	retain          uintptr
	release         uintptr
	copyDescription uintptr
}

func loadCoreFoundation() error {
	cfOnce.Do(func() {
		cfLoadErr = func() error {
			cf, err := purego.Dlopen(coreFoundationPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err != nil {
				return fmt.Errorf("loading CoreFoundation: %w", err)
			}
			// AppKit must be resident before NSApplication is used.
			if _, err := purego.Dlopen(appKitPath, purego.RTLD_NOW|purego.RTLD_GLOBAL); err != nil {
				return fmt.Errorf("loading AppKit: %w", err)
			}

			purego.RegisterLibFunc(&cfRunLoopGetCurrent, cf, "CFRunLoopGetCurrent")
			purego.RegisterLibFunc(&cfRunLoopAddTimer, cf, "CFRunLoopAddTimer")
			purego.RegisterLibFunc(&cfRunLoopWakeUp, cf, "CFRunLoopWakeUp")
			purego.RegisterLibFunc(&cfRunLoopTimerCreate, cf, "CFRunLoopTimerCreate")
			purego.RegisterLibFunc(&cfAbsoluteTimeGetCurrent, cf, "CFAbsoluteTimeGetCurrent")

			sym, err := purego.Dlsym(cf, "kCFRunLoopCommonModes")
			if err != nil {
				return fmt.Errorf("resolving kCFRunLoopCommonModes: %w", err)
			}
			// The symbol is the address of the CFStringRef global.
			kCFRunLoopCommonModes = *(*uintptr)(unsafe.Pointer(sym))
			return nil
		}()
	})
	return cfLoadErr
}

type cfTimerEntry struct {
	fire TimerFunc
	ctx  TimerContext
}

// coreFoundationLoop drives [NSApp run] and schedules CFRunLoopTimers on the
// run loop of the thread that created it.
type coreFoundationLoop struct {
	mu        sync.Mutex
	loopRef   uintptr
	nsApp     objc.ID
	nextToken uintptr
	timers    map[uintptr]cfTimerEntry

	// Registered once; every timer is multiplexed through them, to stay
	// within purego's callback budget. The native context carries a
	// loop-issued token rather than ctx.Info: Info values are caller-chosen
	// and need not be unique, so they cannot key the entry map.
	fireCB    uintptr
	releaseCB uintptr
}

func newCoreFoundation() (*coreFoundationLoop, error) {
	if err := loadCoreFoundation(); err != nil {
		return nil, err
	}

	l := &coreFoundationLoop{
		loopRef: cfRunLoopGetCurrent(),
		timers:  make(map[uintptr]cfTimerEntry),
	}
	l.fireCB = purego.NewCallback(func(timer, token uintptr) {
		l.mu.Lock()
		ent, ok := l.timers[token]
		l.mu.Unlock()
		if ok {
			ent.fire(timer, ent.ctx.Info)
		}
	})
	l.releaseCB = purego.NewCallback(func(token uintptr) {
		l.mu.Lock()
		ent, ok := l.timers[token]
		delete(l.timers, token)
		l.mu.Unlock()
		if ok {
			releaseContext(ent.ctx)
		}
	})
	return l, nil
}

// Setup declares the process a regular foreground application. Called once
// by the connection before the loop runs.
func (l *coreFoundationLoop) Setup() error {
	app := objc.ID(objc.GetClass("NSApplication")).Send(objc.RegisterName("sharedApplication"))
	if app == 0 {
		return fmt.Errorf("runloop: NSApplication sharedApplication returned nil")
	}
	app.Send(objc.RegisterName("setActivationPolicy:"), nsActivationPolicyRegular)
	l.mu.Lock()
	l.nsApp = app
	l.mu.Unlock()
	return nil
}

func (l *coreFoundationLoop) Run() error {
	l.app().Send(objc.RegisterName("run"))
	return nil
}

func (l *coreFoundationLoop) Stop() {
	l.app().Send(objc.RegisterName("stop:"), 0)
}

func (l *coreFoundationLoop) Now() float64 {
	return cfAbsoluteTimeGetCurrent()
}

func (l *coreFoundationLoop) AddTimer(fireAt, interval float64, fire TimerFunc, ctx TimerContext) error {
	if fire == nil {
		releaseContext(ctx)
		return ErrNilFire
	}

	l.mu.Lock()
	l.nextToken++
	token := l.nextToken
	l.timers[token] = cfTimerEntry{fire: fire, ctx: ctx}
	l.mu.Unlock()

	tctx := cfRunLoopTimerContext{
		info:    token,
		release: l.releaseCB,
	}
	ref := cfRunLoopTimerCreate(0, fireAt, interval, 0, 0, l.fireCB, unsafe.Pointer(&tctx))
	if ref == 0 {
		l.mu.Lock()
		delete(l.timers, token)
		l.mu.Unlock()
		releaseContext(ctx)
		return fmt.Errorf("runloop: CFRunLoopTimerCreate failed")
	}

	cfRunLoopAddTimer(l.loopRef, ref, kCFRunLoopCommonModes)
	cfRunLoopWakeUp(l.loopRef)
	return nil
}

func (l *coreFoundationLoop) app() objc.ID {
	l.mu.Lock()
	app := l.nsApp
	l.mu.Unlock()
	if app == 0 {
		app = objc.ID(objc.GetClass("NSApplication")).Send(objc.RegisterName("sharedApplication"))
	}
	return app
}
