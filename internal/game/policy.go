// apps/go-server/internal/game/policy.go
//
// Gesture policies for the two session variants. A policy decides which
// accepted gestures reach the model and whether the session should end
// after a dispatched gesture. Both policies are pure predicates over the
// variant tag; the controller dispatches with a switch rather than
// polymorphism.

package game

// SwipeToPassIndex is the tutorial card on which the only legal gesture is
// a forward swipe ("Swipe to pass"). Every other tutorial card accepts
// only a tap.
const SwipeToPassIndex = 1

// gestureAccepted reports whether the policy for v lets gesture g reach
// the model. Backward swipes never get this far; the controller answers
// them with reject feedback regardless of variant.
func gestureAccepted(v Variant, g Gesture, seq *Sequence) bool {
	switch v {
	case VariantTutorial:
		onSwipeCard := seq.CurrentIndex() == SwipeToPassIndex
		switch g {
		case GestureTap:
			return !onSwipeCard
		case GestureSwipeForward:
			return onSwipeCard
		}
		return false
	default:
		// Normal play accepts tap and forward swipe unconditionally.
		return g == GestureTap || g == GestureSwipeForward
	}
}

// shouldTerminateAfter is consulted after every dispatched gesture.
// The tutorial ends as soon as a gesture moves play off the final card:
// preIndex is the current index captured before the gesture was applied.
// Normal sessions never end here; all-guessed termination runs through the
// delayed post-score callback, and time expiry through the countdown.
func shouldTerminateAfter(v Variant, preIndex int, seq *Sequence) bool {
	if v != VariantTutorial {
		return false
	}
	return preIndex == seq.PhraseCount()-1
}
