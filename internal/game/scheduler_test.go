package game

import "time"

// manualScheduler is a deterministic Scheduler for tests: tasks queue up
// and fire only when the test says so. Single-threaded by construction.
type manualScheduler struct {
	tasks []*manualTask
}

type manualTask struct {
	delay     time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (m *manualScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := &manualTask{delay: d, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() { t.cancelled = true }
}

// fireNext runs the oldest live task. Returns false when nothing is
// pending.
func (m *manualScheduler) fireNext() bool {
	for _, t := range m.tasks {
		if t.fired || t.cancelled {
			continue
		}
		t.fired = true
		t.fn()
		return true
	}
	return false
}

// pending counts tasks that are still scheduled.
func (m *manualScheduler) pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}
