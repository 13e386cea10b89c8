//go:build darwin && !ios && (amd64 || arm64)

package runloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreFoundationLoop_DuplicateInfoTimersKeepDistinctEntries(t *testing.T) {
	l, err := newCoreFoundation()
	if err != nil {
		t.Skipf("Core Foundation unavailable: %v", err)
	}

	// Info is caller-chosen and may repeat (zero included); each timer must
	// still get its own multiplex entry so neither release is lost.
	fired := func(_, _ uintptr) { t.Error("timer fired unexpectedly") }
	require.NoError(t, l.AddTimer(l.Now()+3600, 0, fired, TimerContext{Info: 0}))
	require.NoError(t, l.AddTimer(l.Now()+3600, 0, fired, TimerContext{Info: 0}))

	l.mu.Lock()
	n := len(l.timers)
	l.mu.Unlock()
	assert.Equal(t, 2, n, "timers with equal Info must not collide")
}
