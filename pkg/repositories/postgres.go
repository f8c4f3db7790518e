package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bridge_storage (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects and prepares the storage table.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveState(ctx context.Context, state *gamestate.GameState) error {
	return r.put(ctx, StateKey, state)
}

func (r *PostgresRepository) LoadState(ctx context.Context) (*gamestate.GameState, error) {
	var state *gamestate.GameState
	if err := r.get(ctx, StateKey, &state); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &ErrNotFound{}
	}
	return state, nil
}

func (r *PostgresRepository) SaveSessions(ctx context.Context, sessions []*gamestate.GameSession) error {
	if sessions == nil {
		sessions = []*gamestate.GameSession{}
	}
	return r.put(ctx, SessionKey, sessions)
}

func (r *PostgresRepository) LoadSessions(ctx context.Context) ([]*gamestate.GameSession, error) {
	var sessions []*gamestate.GameSession
	if err := r.get(ctx, SessionKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresRepository) put(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %v", key, err)
	}

	q := `
	INSERT INTO bridge_storage (key, value, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now();
	`
	if _, err := r.conn.Exec(ctx, q, key, string(b)); err != nil {
		return fmt.Errorf("failed to write %s: %v", key, err)
	}

	return nil
}

func (r *PostgresRepository) get(ctx context.Context, key string, out interface{}) error {
	q := `
	SELECT value FROM bridge_storage WHERE key = $1;
	`
	var value string
	if err := r.conn.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if err == pgx.ErrNoRows {
			return &ErrNotFound{}
		}
		return fmt.Errorf("failed to scan %s: %v", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		log.Warn("Discarding corrupt value for %s: %v", key, err)
		return &ErrNotFound{}
	}

	return nil
}
