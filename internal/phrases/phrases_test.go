package phrases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmbeddedDefaults(t *testing.T) {
	require.NoError(t, Init())

	cat, tut := Stats()
	assert.Greater(t, cat, 10, "catalog must cover a full game")
	assert.GreaterOrEqual(t, tut, 3, "tutorial needs a tap card, a swipe card, and a final card")

	// Calling Init again is a no-op.
	require.NoError(t, Init())
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	require.NoError(t, Init())

	a := Catalog()
	a[0] = "mutated"
	b := Catalog()
	assert.NotEqual(t, "mutated", b[0])
}

func TestRandom_SamplesDistinctPhrases(t *testing.T) {
	require.NoError(t, Init())

	got := Random(10)
	require.Len(t, got, 10)

	seen := make(map[string]bool, len(got))
	for _, p := range got {
		assert.False(t, seen[p], "duplicate phrase %q", p)
		seen[p] = true
	}
}

func TestRandom_ClampsToCatalogSize(t *testing.T) {
	require.NoError(t, Init())

	cat, _ := Stats()
	got := Random(cat + 100)
	assert.Len(t, got, cat)
}

func TestDailySet_Deterministic(t *testing.T) {
	require.NoError(t, Init())

	a := DailySet(42, 10)
	b := DailySet(42, 10)
	assert.Equal(t, a, b, "same seed must give the same set in the same order")

	c := DailySet(43, 10)
	assert.NotEqual(t, a, c, "different seeds should give different sets")
}

func TestTutorial_ScriptOrder(t *testing.T) {
	require.NoError(t, Init())

	tut := Tutorial()
	require.GreaterOrEqual(t, len(tut), 3)
	for _, card := range tut {
		assert.NotEmpty(t, card)
	}
}
