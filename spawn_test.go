package uiloop

import (
	"sync"
	"testing"
)

func TestExecutor_FIFOOrder(t *testing.T) {
	spawnq.run() // flush anything a previous test left behind

	// No connection: work queues until drained by hand.
	var order []int
	ex := NewExecutor()
	for i := 0; i < 10; i++ {
		i := i
		ex.Execute(func() { order = append(order, i) })
	}

	if n := spawnq.run(); n != 10 {
		t.Fatalf("drained %d closures, want 10", n)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d; bridge must preserve FIFO order", i, got)
		}
	}
}

func TestExecutor_NeverRunsInline(t *testing.T) {
	ran := false
	NewExecutor().Execute(func() { ran = true })
	if ran {
		t.Error("Execute must defer work, not run it inline")
	}
	spawnq.run()
	if !ran {
		t.Error("queued work did not run on drain")
	}
}

func TestExecutor_NilWorkIgnored(t *testing.T) {
	spawnq.run()

	NewExecutor().Execute(nil)
	if n := spawnq.run(); n != 0 {
		t.Errorf("drained %d closures, want 0", n)
	}
}

func TestSpawnQueue_WorkPostedBeforeConnectRuns(t *testing.T) {
	ran := make(chan struct{})
	NewExecutor().Execute(func() { close(ran) })

	// Connect primes the queue, so pre-connect work runs without the
	// message loop ever starting.
	c, _ := connect(t)
	_ = c

	select {
	case <-ran:
	default:
		t.Error("work posted before Connect was not drained by Connect")
	}
}

func TestSpawnQueue_SubmissionSafeFromAnyGoroutine(t *testing.T) {
	spawnq.run()

	const numGoroutines = 32
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				NewExecutor().Execute(func() {})
			}
		}()
	}
	wg.Wait()

	if n := spawnq.run(); n != numGoroutines*perGoroutine {
		t.Errorf("drained %d closures, want %d", n, numGoroutines*perGoroutine)
	}
}
