// apps/go-server/internal/game/errors.go
//
// Sentinel errors for the game engine. Both are precondition violations
// detected synchronously; there are no transient failure modes here.

package game

import "errors"

var (
	// ErrNoPhrases is returned when a sequence is constructed from an
	// empty phrase list. Fatal for session start; no recovery.
	ErrNoPhrases = errors.New("game: phrase list is empty")

	// ErrIndexOutOfRange is returned by indexed accessors when the index
	// falls outside [0, PhraseCount). Programmer error.
	ErrIndexOutOfRange = errors.New("game: phrase index out of range")
)
