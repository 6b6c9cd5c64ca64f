// apps/go-server/internal/game/scheduler.go
//
// Delayed-task scheduling for the engine. The controller never touches the
// wall clock directly: the post-score feedback delay and the one-second
// countdown tick both go through a Scheduler, so tests can drive time by
// hand and production uses real timers.

package game

import "time"

// CancelFunc cancels a scheduled callback. Calling it after the callback
// has fired, or more than once, is a no-op.
type CancelFunc func()

// Scheduler posts a callback to run after a delay. Implementations must
// guarantee that fn runs at most once and never after its CancelFunc has
// been called.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
}

// clockScheduler is the production Scheduler backed by time.AfterFunc.
type clockScheduler struct{}

// NewClockScheduler returns a Scheduler that uses real timers.
func NewClockScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
