package repositories

import (
	"context"

	"github.com/ottobit/simbridge/pkg/gamestate"
)

// Storage keys. Values are whole-value overwrites, never patched.
const (
	StateKey   = "phaser-game-state"
	SessionKey = "phaser-session-history"
)

// Repository provides durable storage for the current game state and the
// session history. Implementations must treat corrupt or missing values as
// absent data (ErrNotFound), never as a parse failure surfaced to callers.
type Repository interface {
	Close(ctx context.Context) error
	// SaveState persists the current state; a nil state persists the
	// explicit "no state" marker.
	SaveState(ctx context.Context, state *gamestate.GameState) error
	LoadState(ctx context.Context) (*gamestate.GameState, error)
	SaveSessions(ctx context.Context, sessions []*gamestate.GameSession) error
	LoadSessions(ctx context.Context) ([]*gamestate.GameSession, error)
}
