// apps/go-server/internal/game/types.go
//
// Core type definitions for the charades game engine.
// Defines:
//   - Gesture: discrete input signal from the player (tap/swipe).
//   - Variant: which rule set a session runs under (normal/tutorial).
//   - EventKind + Event: signals emitted by the engine for the
//     presentation layer.
//   - Snapshot: immutable copy of a finished (or in-progress) sequence,
//     handed to the results collaborator.

package game

// Gesture represents a discrete input signal during play.
// Possible values:
//   - "tap":            mark the current phrase as guessed.
//   - "swipe_forward":  pass on the current phrase.
//   - "swipe_backward": disallowed direction; always answered with a
//     reject/tug feedback signal, never forwarded to game logic.
type Gesture string

const (
	GestureTap           Gesture = "tap"
	GestureSwipeForward  Gesture = "swipe_forward"
	GestureSwipeBackward Gesture = "swipe_backward"
)

// Valid reports whether g is one of the known gestures.
func (g Gesture) Valid() bool {
	switch g {
	case GestureTap, GestureSwipeForward, GestureSwipeBackward:
		return true
	}
	return false
}

// Variant selects the rule set for a session.
// Normal games run a countdown over randomly sampled phrases; the tutorial
// runs a fixed script that restricts which gesture is legal on which card.
type Variant string

const (
	VariantNormal   Variant = "normal"
	VariantTutorial Variant = "tutorial"
)

// EventKind enumerates the signals the engine emits toward the
// presentation layer.
type EventKind string

const (
	EventScore       EventKind = "score"        // current phrase marked guessed
	EventPass        EventKind = "pass"         // current phrase deferred
	EventReject      EventKind = "reject"       // backward swipe; tug feedback
	EventAdvance     EventKind = "advance"      // display should move to the next phrase
	EventTick        EventKind = "tick"         // one second elapsed; SecondsRemaining set
	EventTimeExpired EventKind = "time_expired" // countdown ran out
	EventGameEnd     EventKind = "game_end"     // session over; Snapshot set
)

// Event is a single signal emitted by the engine. Fields beyond Kind are
// populated only where noted above.
type Event struct {
	Kind             EventKind `json:"kind"`
	SecondsRemaining int       `json:"secondsRemaining,omitempty"`
	Snapshot         *Snapshot `json:"snapshot,omitempty"`
}

// Snapshot is a read-only copy of a sequence's state: the ordered phrases,
// the parallel guessed flags, and the score. It is the payload of
// EventGameEnd and the value persisted by result consumers. The slices are
// owned by the snapshot and never aliased back into the live sequence.
type Snapshot struct {
	Phrases     []string `json:"phrases"`
	Guessed     []bool   `json:"guessed"`
	Score       int      `json:"score"`
	PhraseCount int      `json:"phraseCount"`
}
