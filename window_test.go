package uiloop

import (
	"testing"
)

func TestWindowHandle_WithGrantsMutableAccess(t *testing.T) {
	h := NewWindowHandle(1, "untitled", 320, 240)

	h.With(func(w *Window) {
		if w.ID() != 1 {
			t.Errorf("id: got %d, want 1", w.ID())
		}
		if w.Title() != "untitled" {
			t.Errorf("title: got %q, want %q", w.Title(), "untitled")
		}
		width, height := w.Size()
		if width != 320 || height != 240 {
			t.Errorf("size: got %dx%d, want 320x240", width, height)
		}
		if w.Visible() {
			t.Error("windows start hidden")
		}

		w.SetTitle("main")
		w.Resize(800, 600)
		w.Show()
	})

	h.With(func(w *Window) {
		if w.Title() != "main" {
			t.Error("mutation did not persist")
		}
		if !w.Visible() {
			t.Error("Show did not persist")
		}
	})
}

func TestWindowHandle_ReentrantBorrowPanics(t *testing.T) {
	h := NewWindowHandle(1, "w", 1, 1)

	defer func() {
		if recover() == nil {
			t.Error("overlapping mutable borrow should panic")
		}
	}()

	h.With(func(*Window) {
		h.With(func(*Window) {})
	})
}

func TestWindowHandle_BorrowReleasedAfterWith(t *testing.T) {
	h := NewWindowHandle(1, "w", 1, 1)

	h.With(func(*Window) {})
	// The borrow ends with With; a fresh borrow must succeed.
	h.With(func(*Window) {})
}

func TestWindowHandle_BorrowReleasedAfterPanic(t *testing.T) {
	h := NewWindowHandle(1, "w", 1, 1)

	func() {
		defer func() { recover() }()
		h.With(func(*Window) { panic("app bug") })
	}()

	// The panic unwound through With; the borrow must not stay held.
	h.With(func(*Window) {})
}
