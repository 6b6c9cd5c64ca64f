// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the session Store interface. Live charades
// sessions are inherently ephemeral (a session spans one round of play),
// so memory is the only backing needed; finished results go to SQLite via
// the httpserver, not through this store.
//
// Characteristics:
//   - Stores *game.Controller objects keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Errors are returned for missing session IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/partyword/charades/apps/go-server/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Store defines how live sessions are kept while a round is in play.
type Store interface {
	// Save registers or refreshes a session.
	Save(ctx context.Context, c *game.Controller) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session is not present.
	Get(ctx context.Context, id string) (*game.Controller, error)

	// Delete drops a session. Removing an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                // guards sessions map
	sessions map[string]*game.Controller // keyed by Controller.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Controller)}
}

// Save adds or updates the session in the map.
func (m *memory) Save(ctx context.Context, c *game.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.ID()] = c
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.sessions[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

// Delete removes a session by ID.
func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
