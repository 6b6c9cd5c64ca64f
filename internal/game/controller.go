// apps/go-server/internal/game/controller.go
//
// Turn engine for a single charades session.
// Responsibilities:
//   - Translate gesture events into sequence mutations, subject to the
//     input-enabled gate and the variant's gesture policy.
//   - Hold the guessed phrase on screen briefly after a score (input
//     disabled for the duration) before signalling the advance.
//   - Run the countdown for normal games and end the session on expiry.
//   - Emit engine events toward the presentation layer via the sink.
//
// Notes:
//   - All handlers run to completion under one mutex: gestures, the
//     delayed post-score callback, and countdown ticks are serialized, so
//     the sequence is never observed mid-update. Gestures arriving while
//     input is disabled are dropped, not buffered.
//   - The sink is invoked with the mutex held and must not call back into
//     the controller.
//   - Once the session has ended nothing is emitted and no gesture has
//     any effect. Teardown cancels the countdown and any pending
//     post-score callback without emitting a final event.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// ScoredPhraseDelay is how long a correctly guessed phrase stays on screen
// before the advance signal, with input disabled throughout.
const ScoredPhraseDelay = 500 * time.Millisecond

// Config describes a new session.
type Config struct {
	// Phrases is the ordered phrase list for the session. Must be
	// non-empty; the engine performs no resource loading of its own.
	Phrases []string

	// Variant selects the rule set. Zero value means VariantNormal.
	Variant Variant

	// GameSeconds is the countdown duration for normal games. Ignored for
	// the tutorial; a value <= 0 disables the countdown entirely.
	GameSeconds int

	// Scheduler posts delayed callbacks. Nil uses real timers.
	Scheduler Scheduler

	// Sink receives emitted events. Nil discards them.
	Sink func(Event)
}

// Controller owns one session: the phrase sequence, the input gate, and
// the timers. It is safe for concurrent use.
type Controller struct {
	id      string
	variant Variant

	mu           sync.Mutex
	seq          *Sequence
	inputEnabled bool
	ended        bool
	countdown    *Countdown // nil when no time limit runs
	cancelScore  CancelFunc // pending post-score callback, if any
	sink         func(Event)
	sched        Scheduler // lock-wrapping scheduler; see lockedScheduler
}

// NewController constructs a session from cfg.
// Returns ErrNoPhrases if the phrase list is empty.
func NewController(cfg Config) (*Controller, error) {
	seq, err := NewSequence(cfg.Phrases)
	if err != nil {
		return nil, err
	}
	variant := cfg.Variant
	if variant == "" {
		variant = VariantNormal
	}
	inner := cfg.Scheduler
	if inner == nil {
		inner = NewClockScheduler()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = func(Event) {}
	}

	c := &Controller{
		id:           randomID(),
		variant:      variant,
		seq:          seq,
		inputEnabled: true,
		sink:         sink,
	}
	c.sched = lockedScheduler{c: c, inner: inner}
	if variant == VariantNormal && cfg.GameSeconds > 0 {
		c.countdown = NewCountdown(c.sched, c.timerTicked, c.timerExpired)
		c.countdown.Start(cfg.GameSeconds)
	}
	return c, nil
}

// HandleGesture processes one gesture event.
// Gestures are dropped outright when the session has ended or while input
// is disabled; a backward swipe is answered with reject feedback and never
// reaches the model; gestures the variant's policy refuses are ignored
// silently.
func (c *Controller) HandleGesture(g Gesture) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended || !c.inputEnabled {
		return
	}
	if g == GestureSwipeBackward {
		c.emit(Event{Kind: EventReject})
		return
	}
	if !gestureAccepted(c.variant, g, c.seq) {
		return
	}

	preIndex := c.seq.CurrentIndex()
	switch g {
	case GestureTap:
		c.score()
	case GestureSwipeForward:
		c.pass()
	default:
		return
	}

	if shouldTerminateAfter(c.variant, preIndex, c.seq) {
		c.end()
	}
}

// score marks the current phrase guessed and holds it on screen for
// ScoredPhraseDelay with input disabled. After the delay, either the
// advance fires and input re-enables, or (if that was the last phrase)
// the session ends. Caller holds the mutex.
func (c *Controller) score() {
	c.inputEnabled = false
	terminal := c.seq.MarkGuessed()
	c.emit(Event{Kind: EventScore})
	c.cancelScore = c.sched.After(ScoredPhraseDelay, func() {
		c.cancelScore = nil
		if c.ended {
			return
		}
		if terminal {
			c.end()
			return
		}
		c.emit(Event{Kind: EventAdvance})
		c.inputEnabled = true
	})
}

// pass defers the current phrase and advances immediately; passing never
// changes the score, so there is no feedback hold. Caller holds the mutex.
func (c *Controller) pass() {
	c.seq.Pass()
	c.emit(Event{Kind: EventPass})
	c.emit(Event{Kind: EventAdvance})
}

// timerTicked and timerExpired run under the mutex via the locked
// scheduler wrapping the countdown.
func (c *Controller) timerTicked(remaining int) {
	if c.ended {
		return
	}
	c.emit(Event{Kind: EventTick, SecondsRemaining: remaining})
}

func (c *Controller) timerExpired() {
	if c.ended {
		return
	}
	c.emit(Event{Kind: EventTimeExpired})
	c.end()
}

// end moves the session to its terminal state: cancels the countdown and
// any pending post-score callback, then emits the final snapshot. No
// event leaves the controller afterwards. Caller holds the mutex.
func (c *Controller) end() {
	if c.ended {
		return
	}
	c.ended = true
	c.inputEnabled = false
	c.stopScheduled()
	c.emit(Event{Kind: EventGameEnd, Snapshot: c.seq.Snapshot()})
}

// Teardown discards the session: both timers are cancelled so nothing can
// mutate it afterwards, and no game-end event is emitted. Used when the
// hosting screen goes away mid-game. Idempotent.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = true
	c.inputEnabled = false
	c.stopScheduled()
}

// stopScheduled cancels the countdown and pending post-score callback.
// Caller holds the mutex.
func (c *Controller) stopScheduled() {
	if c.countdown != nil {
		c.countdown.Cancel()
	}
	if c.cancelScore != nil {
		c.cancelScore()
		c.cancelScore = nil
	}
}

func (c *Controller) emit(e Event) {
	c.sink(e)
}

/* ------------------------------ accessors ------------------------------ */

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Variant returns the session's rule-set tag.
func (c *Controller) Variant() Variant { return c.variant }

// Ended reports whether the session has reached its terminal state.
func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// InputEnabled reports whether gestures are currently being accepted.
func (c *Controller) InputEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputEnabled
}

// CurrentPhrase returns the phrase currently on screen.
func (c *Controller) CurrentPhrase() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.CurrentPhrase()
}

// CurrentIndex returns the index of the phrase currently on screen.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.CurrentIndex()
}

// SecondsRemaining returns the countdown remainder, or 0 when no
// countdown runs (tutorial, or untimed sessions).
func (c *Controller) SecondsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown == nil {
		return 0
	}
	return c.countdown.Remaining()
}

// Snapshot returns an immutable copy of the sequence state.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Snapshot()
}

/* ---------------------------- lock plumbing ----------------------------- */

// lockedScheduler wraps a Scheduler so every scheduled callback acquires
// the controller mutex before running. This is what gives delayed
// callbacks and countdown ticks the same run-to-completion guarantee as
// direct gesture handling.
type lockedScheduler struct {
	c     *Controller
	inner Scheduler
}

func (l lockedScheduler) After(d time.Duration, fn func()) CancelFunc {
	return l.inner.After(d, func() {
		l.c.mu.Lock()
		defer l.c.mu.Unlock()
		fn()
	})
}

// randomID returns a compact 16-hex-char session identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
