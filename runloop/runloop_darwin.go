//go:build darwin && !ios && (amd64 || arm64)

package runloop

// New returns the platform-default loop: the Core Foundation run loop of the
// calling thread. Call New on the thread that will own the message loop.
func New() (Loop, error) {
	return newCoreFoundation()
}
