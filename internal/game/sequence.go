// apps/go-server/internal/game/sequence.go
//
// Phrase-sequence data model for a single charades session.
// Responsibilities:
//   - Hold the ordered phrases, their guessed flags, and the running score.
//   - Advance the current pointer past guessed phrases, wrapping cyclically.
//   - Report terminal state (all phrases guessed).
//   - Produce immutable snapshots for result consumers.
//
// Notes:
//   - The phrase list is fixed at construction; mutation happens only
//     through MarkGuessed and Pass.
//   - The advance scan is a cyclic linear search bounded by one lap; with
//     score < N an unguessed index always exists, so it terminates.
//   - Once Score() == PhraseCount() the sequence is terminal and the
//     current index keeps whatever value it held at that moment.

package game

// Sequence tracks which phrases have been guessed and which phrase the
// players are currently on. Invariants (while not terminal):
//   - score equals the number of true guessed flags;
//   - the current index never points at a guessed phrase.
type Sequence struct {
	phrases []string
	guessed []bool
	score   int
	current int
}

// NewSequence constructs a sequence over the given phrases.
// Returns ErrNoPhrases if the list is empty. The list is copied so later
// mutation by the caller cannot reach into the session.
func NewSequence(phrases []string) (*Sequence, error) {
	if len(phrases) == 0 {
		return nil, ErrNoPhrases
	}
	cp := make([]string, len(phrases))
	copy(cp, phrases)
	return &Sequence{
		phrases: cp,
		guessed: make([]bool, len(cp)),
	}, nil
}

// MarkGuessed marks the current phrase as guessed, bumps the score, and
// advances to the next unguessed phrase.
// Returns true if every phrase has now been guessed.
func (s *Sequence) MarkGuessed() bool {
	s.guessed[s.current] = true
	s.score++
	return s.advance()
}

// Pass defers the current phrase without touching the guessed flags or the
// score, and advances to the next unguessed phrase.
// Always returns false in practice: being able to pass means at least one
// phrase is unguessed.
func (s *Sequence) Pass() bool {
	return s.advance()
}

// advance moves the current pointer forward, cyclically, until it rests on
// an unguessed phrase. If the sequence is already fully guessed it returns
// true immediately and leaves the pointer alone.
func (s *Sequence) advance() bool {
	if s.AllGuessed() {
		return true
	}
	for {
		s.current = (s.current + 1) % len(s.phrases)
		if !s.guessed[s.current] {
			return false
		}
	}
}

// CurrentPhrase returns the phrase the players are currently on.
func (s *Sequence) CurrentPhrase() string {
	return s.phrases[s.current]
}

// CurrentIndex returns the index of the phrase the players are currently on.
func (s *Sequence) CurrentIndex() int {
	return s.current
}

// PhraseAt returns the phrase at index, or ErrIndexOutOfRange.
func (s *Sequence) PhraseAt(index int) (string, error) {
	if index < 0 || index >= len(s.phrases) {
		return "", ErrIndexOutOfRange
	}
	return s.phrases[index], nil
}

// IsGuessedAt reports whether the phrase at index has been guessed, or
// ErrIndexOutOfRange.
func (s *Sequence) IsGuessedAt(index int) (bool, error) {
	if index < 0 || index >= len(s.guessed) {
		return false, ErrIndexOutOfRange
	}
	return s.guessed[index], nil
}

// PhraseCount returns the number of phrases in the sequence.
func (s *Sequence) PhraseCount() int {
	return len(s.phrases)
}

// Score returns the number of phrases guessed so far.
func (s *Sequence) Score() int {
	return s.score
}

// AllGuessed reports whether every phrase has been guessed.
func (s *Sequence) AllGuessed() bool {
	return s.score == len(s.phrases)
}

// Snapshot returns an immutable copy of the sequence state. Used for the
// game-end payload and anywhere state crosses a component boundary.
func (s *Sequence) Snapshot() *Snapshot {
	phrases := make([]string, len(s.phrases))
	copy(phrases, s.phrases)
	guessed := make([]bool, len(s.guessed))
	copy(guessed, s.guessed)
	return &Snapshot{
		Phrases:     phrases,
		Guessed:     guessed,
		Score:       s.score,
		PhraseCount: len(s.phrases),
	}
}
