package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
)

// InMemoryRepository implements Repository over a map. Values round-trip
// through JSON so it behaves like the durable implementations, including
// corrupt-value recovery.
type InMemoryRepository struct {
	lock   sync.RWMutex
	values map[string][]byte
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		values: make(map[string][]byte),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) SaveState(ctx context.Context, state *gamestate.GameState) error {
	return r.put(StateKey, state)
}

func (r *InMemoryRepository) LoadState(ctx context.Context) (*gamestate.GameState, error) {
	var state *gamestate.GameState
	if err := r.get(StateKey, &state); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &ErrNotFound{}
	}
	return state, nil
}

func (r *InMemoryRepository) SaveSessions(ctx context.Context, sessions []*gamestate.GameSession) error {
	if sessions == nil {
		sessions = []*gamestate.GameSession{}
	}
	return r.put(SessionKey, sessions)
}

func (r *InMemoryRepository) LoadSessions(ctx context.Context) ([]*gamestate.GameSession, error) {
	var sessions []*gamestate.GameSession
	if err := r.get(SessionKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Corrupt overwrites a stored value with unparseable bytes. Test helper.
func (r *InMemoryRepository) Corrupt(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = []byte("{not json")
}

func (r *InMemoryRepository) put(key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %v", key, err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = b
	return nil
}

func (r *InMemoryRepository) get(key string, out interface{}) error {
	r.lock.RLock()
	b, ok := r.values[key]
	r.lock.RUnlock()
	if !ok {
		return &ErrNotFound{}
	}

	if err := json.Unmarshal(b, out); err != nil {
		log.Warn("Discarding corrupt value for %s: %v", key, err)
		return &ErrNotFound{}
	}

	return nil
}
