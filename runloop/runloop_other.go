//go:build !darwin || ios || (!amd64 && !arm64)

package runloop

// New returns the platform-default loop. Without a native run-loop binding
// this is the portable in-process loop.
func New() (Loop, error) {
	return NewPortable(), nil
}
