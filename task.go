package uiloop

import "sync"

// Task is a suspended fire-and-forget computation driven by polling. Poll
// advances the task one step and reports whether it completed; an incomplete
// task stays in the table and is advanced again on its next wake. Poll only
// ever runs on the loop-owning thread.
type Task interface {
	Poll() (done bool)
}

// TaskSlot identifies one pending task in the connection's task table.
type TaskSlot uint64

// funcTask completes in a single poll.
type funcTask func()

func (f funcTask) Poll() bool {
	f()
	return true
}

// taskTable owns in-flight tasks, keyed by slot. The mutex covers the
// add-from-any-thread handoff; polling itself is confined to the loop thread
// and never overlaps.
type taskTable struct {
	mu    sync.Mutex
	next  TaskSlot
	table map[TaskSlot]Task
}

func newTaskTable() *taskTable {
	return &taskTable{table: make(map[TaskSlot]Task)}
}

// add stores task and returns a slot distinct from every pending slot.
// Slots of completed tasks may be reused.
func (t *taskTable) add(task Task) TaskSlot {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.next
	for {
		if _, busy := t.table[slot]; !busy {
			break
		}
		slot++
	}
	t.next = slot + 1
	t.table[slot] = task
	return slot
}

// pollBySlot advances the task one step, removing it on completion. An
// unknown slot (completed or never issued) is a silent no-op: wakes are
// allowed to race with completion. Loop thread only.
func (t *taskTable) pollBySlot(slot TaskSlot) {
	t.mu.Lock()
	task, ok := t.table[slot]
	t.mu.Unlock()
	if !ok {
		return
	}
	if task.Poll() {
		t.mu.Lock()
		delete(t.table, slot)
		t.mu.Unlock()
	}
}

// pending reports the number of in-flight tasks.
func (t *taskTable) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.table)
}
