// apps/go-server/internal/game/countdown.go
//
// Cooperative one-second countdown driving time-limited sessions. The
// countdown does not own a goroutine or a clock: it schedules its next
// Tick through the Scheduler it was given, and the owner (the controller)
// serializes every callback. Only normal games run a countdown; the
// tutorial has none.

package game

import "time"

const tickInterval = time.Second

// Countdown counts whole seconds down to zero. Tick is invoked once per
// elapsed second; when the remainder reaches zero the expiry callback
// fires and nothing further is scheduled. Cancel unconditionally
// suppresses any pending tick.
type Countdown struct {
	remaining int
	stopped   bool
	sched     Scheduler
	onTick    func(remaining int)
	onExpired func()
	cancel    CancelFunc
}

// NewCountdown constructs a countdown that reports through the given
// callbacks. Not safe for concurrent use; the owner serializes calls.
func NewCountdown(sched Scheduler, onTick func(remaining int), onExpired func()) *Countdown {
	return &Countdown{sched: sched, onTick: onTick, onExpired: onExpired}
}

// Start arms the countdown with the total duration and schedules the
// first tick one second out.
func (c *Countdown) Start(totalSeconds int) {
	c.remaining = totalSeconds
	c.stopped = false
	c.reschedule()
}

// Tick consumes one second. On expiry it fires onExpired and stops;
// otherwise it reports the remainder and schedules the next tick.
// A tick that was already in flight when Cancel ran is ignored, so a
// cancelled countdown never reschedules itself.
func (c *Countdown) Tick() {
	if c.stopped {
		return
	}
	c.cancel = nil
	c.remaining--
	if c.remaining <= 0 {
		c.onExpired()
		return
	}
	c.onTick(c.remaining)
	c.reschedule()
}

// Cancel stops the countdown: the pending tick is cancelled, and a tick
// whose timer already fired is dropped on arrival. Safe to call
// repeatedly and after expiry.
func (c *Countdown) Cancel() {
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Remaining returns the number of whole seconds left.
func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) reschedule() {
	c.cancel = c.sched.After(tickInterval, c.Tick)
}
