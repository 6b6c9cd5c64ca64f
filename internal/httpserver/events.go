// apps/go-server/internal/httpserver/events.go
//
// Per-session event log.
// Responsibilities:
//   - Assign monotonically increasing sequence numbers to engine events.
//   - Serve cursor-based replay for polling clients (GET /game/{id}/events).
//
// The engine dispatches events one at a time, but HTTP readers poll
// concurrently, so the log carries its own lock.

package httpserver

import (
	"sync"

	"github.com/partyword/charades/apps/go-server/internal/game"
)

// loggedEvent is an engine event plus its position in the session log.
type loggedEvent struct {
	Seq int `json:"seq"`
	game.Event
}

type eventLog struct {
	mu     sync.Mutex
	events []loggedEvent
}

func newEventLog() *eventLog { return &eventLog{} }

// append records an event and assigns it the next sequence number (1-based).
func (l *eventLog) append(e game.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, loggedEvent{Seq: len(l.events) + 1, Event: e})
}

// since returns all events with Seq > after. Never returns nil.
func (l *eventLog) since(after int) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if after < 0 {
		after = 0
	}
	if after >= len(l.events) {
		return []loggedEvent{}
	}
	out := make([]loggedEvent, len(l.events)-after)
	copy(out, l.events[after:])
	return out
}

// lastSeq returns the sequence number of the newest event (0 when empty).
func (l *eventLog) lastSeq() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
