package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyword/charades/apps/go-server/internal/game"
)

func newTestSession(t *testing.T) *game.Controller {
	t.Helper()
	c, err := game.NewController(game.Config{
		Phrases: []string{"alpha", "beta"},
		Variant: game.VariantNormal,
	})
	require.NoError(t, err)
	t.Cleanup(c.Teardown)
	return c
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	c := newTestSession(t)

	require.NoError(t, st.Save(ctx, c))

	got, err := st.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	c := newTestSession(t)

	require.NoError(t, st.Save(ctx, c))
	require.NoError(t, st.Delete(ctx, c.ID()))

	_, err := st.Get(ctx, c.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, st.Delete(ctx, c.ID()))
}
