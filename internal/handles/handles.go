// Package handles provides a thread-safe registry for Go closures that are
// referenced from native callbacks by an opaque token.
//
// The native run-loop APIs this module binds identify a timer's callback by
// a single untyped context pointer. Go pointers must not be stored in native
// memory, so the closure is registered here and the returned uintptr token is
// handed across the boundary instead. The fire trampoline recovers the
// closure with Lookup; the release trampoline consumes it with Take, which
// removes the entry and returns it exactly once. A second Take (or a Lookup
// after release) finds nothing, which is what makes double-release and
// fire-after-release structurally impossible rather than merely checked.
package handles

import (
	"sync"
)

var (
	mu      sync.RWMutex
	entries = make(map[uintptr]any)
	nextID  uintptr = 1
)

// Register stores a Go value and returns an opaque token for it.
// The token can be safely stored in native memory (as uintptr or void*).
// The value remains reachable until Take removes it.
//
// Thread-safe.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	entries[id] = v
	return id
}

// Lookup retrieves a registered value by its token.
// Returns nil if the token is unknown or already consumed by Take.
//
// Thread-safe.
func Lookup(id uintptr) any {
	mu.RLock()
	defer mu.RUnlock()
	return entries[id]
}

// Take removes a registered value and returns it, transferring ownership to
// the caller. Only the first Take for a token returns the value; subsequent
// calls return nil. This is the release half of the fire/release protocol.
//
// Thread-safe.
func Take(id uintptr) any {
	mu.Lock()
	defer mu.Unlock()
	v, ok := entries[id]
	if !ok {
		return nil
	}
	delete(entries, id)
	return v
}

// Count returns the number of currently registered tokens.
// Useful for leak checks in tests.
//
// Thread-safe.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(entries)
}
