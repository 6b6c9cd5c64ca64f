// apps/go-server/internal/phrases/phrases.go
//
// Provides phrase catalog management for the game engine.
//
// Responsibilities:
//   - Load the normal-game phrase catalog and the fixed tutorial script
//     from environment-provided files or fall back to the embedded lists.
//   - Supply sampling helpers (Random, DailySet in sample.go) and Stats.
//
// Phrase lists:
//   - "catalog": the pool normal games sample from (ten phrases per game).
//   - "tutorial": the scripted walkthrough cards, used verbatim and in order.
//
// Initialization behavior (Init):
//   1. If PHRASES_FILE is set, the catalog is read from it (one phrase per
//      line, # comment lines skipped); otherwise the embedded catalog in
//      assets/ is used.
//   2. TUTORIAL_PHRASES_FILE works the same way for the tutorial script.
//
// Constraints:
//   • Phrases are trimmed; blank lines are dropped.
//   • Both lists must end up non-empty or Init fails.
//   • Initialization is run once (sync.Once).

package phrases

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/partyword/charades/apps/go-server/assets"
)

var (
	initOnce   sync.Once
	catalog    []string // pool for normal games
	tutorial   []string // scripted walkthrough cards
	initialErr error
)

// Init loads the phrase lists exactly once.
// Returns an error if either list ends up empty.
func Init() error {
	initOnce.Do(func() {
		var err error

		if path := os.Getenv("PHRASES_FILE"); path != "" {
			catalog, err = readPhraseFile(path)
		} else {
			catalog, err = assets.PhrasesList()
		}
		if err != nil {
			initialErr = err
			return
		}

		if path := os.Getenv("TUTORIAL_PHRASES_FILE"); path != "" {
			tutorial, err = readPhraseFile(path)
		} else {
			tutorial, err = assets.TutorialList()
		}
		if err != nil {
			initialErr = err
			return
		}

		if len(catalog) == 0 {
			initialErr = errors.New("phrases: catalog is empty")
			return
		}
		if len(tutorial) == 0 {
			initialErr = errors.New("phrases: tutorial script is empty")
		}
	})
	return initialErr
}

// readPhraseFile loads one phrase per line from a file, trimming
// whitespace and skipping blanks and # comments.
func readPhraseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Catalog returns a copy of the loaded phrase pool.
func Catalog() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// Tutorial returns a copy of the scripted tutorial cards, in order.
func Tutorial() []string {
	out := make([]string, len(tutorial))
	copy(out, tutorial)
	return out
}

// Stats returns counts of loaded phrases: (catalog, tutorial).
func Stats() (catalogCount int, tutorialCount int) {
	return len(catalog), len(tutorial)
}
