package uiloop

import "sync"

// WindowID identifies a window for the lifetime of the process. Ids are
// issued by Connection.NextWindowID starting at 1 and are never reused;
// 0 is reserved and never issued.
type WindowID uint64

// Window is the loop-thread-owned state for one native window. All mutation
// goes through WindowHandle.With (usually posted via WithWindow), so Window
// methods assume exclusive access and take no locks of their own.
type Window struct {
	id      WindowID
	title   string
	width   int
	height  int
	visible bool
}

// ID returns the window's id.
func (w *Window) ID() WindowID { return w.id }

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// SetTitle updates the window title.
func (w *Window) SetTitle(title string) { w.title = title }

// Size returns the window's width and height.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// Resize updates the window's size.
func (w *Window) Resize(width, height int) {
	w.width = width
	w.height = height
}

// Visible reports whether the window is shown.
func (w *Window) Visible() bool { return w.visible }

// Show marks the window visible.
func (w *Window) Show() { w.visible = true }

// Hide marks the window hidden.
func (w *Window) Hide() { w.visible = false }

// WindowHandle is a shared owner of a Window. Multiple holders may exist
// (the registry plus any in-flight closures that captured a lookup), but
// mutable access is exclusive and runtime-checked: all mutation belongs on
// the loop-owning thread, so an overlapping borrow is a programming error,
// not a condition to wait out.
type WindowHandle struct {
	mu  sync.Mutex
	win Window
}

// NewWindowHandle creates a handle owning a fresh Window. id must come from
// Connection.NextWindowID.
func NewWindowHandle(id WindowID, title string, width, height int) *WindowHandle {
	return &WindowHandle{win: Window{
		id:     id,
		title:  title,
		width:  width,
		height: height,
	}}
}

// With grants f exclusive mutable access to the window state. It panics if
// the state is already borrowed, including re-entrantly from within f.
func (h *WindowHandle) With(f func(*Window)) {
	if !h.mu.TryLock() {
		panic("uiloop: window state already mutably borrowed")
	}
	defer h.mu.Unlock()
	f(&h.win)
}
