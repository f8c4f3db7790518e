package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bridge_storage (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveState(ctx context.Context, state *gamestate.GameState) error {
	return r.put(ctx, StateKey, state)
}

func (r *SQLiteRepository) LoadState(ctx context.Context) (*gamestate.GameState, error) {
	var state *gamestate.GameState
	if err := r.get(ctx, StateKey, &state); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &ErrNotFound{}
	}
	return state, nil
}

func (r *SQLiteRepository) SaveSessions(ctx context.Context, sessions []*gamestate.GameSession) error {
	if sessions == nil {
		sessions = []*gamestate.GameSession{}
	}
	return r.put(ctx, SessionKey, sessions)
}

func (r *SQLiteRepository) LoadSessions(ctx context.Context) ([]*gamestate.GameSession, error) {
	var sessions []*gamestate.GameSession
	if err := r.get(ctx, SessionKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SQLiteRepository) put(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %v", key, err)
	}

	q := `
	INSERT OR REPLACE INTO bridge_storage (key, value, updated_at)
	VALUES (?, ?, strftime('%s', 'now'));
	`
	if _, err := r.db.ExecContext(ctx, q, key, string(b)); err != nil {
		return fmt.Errorf("failed to write %s: %v", key, err)
	}

	return nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string, out interface{}) error {
	q := `
	SELECT value FROM bridge_storage WHERE key = ?;
	`
	var value string
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return &ErrNotFound{}
		}
		return fmt.Errorf("failed to scan %s: %v", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		// A corrupt row reads as absent data.
		log.Warn("Discarding corrupt value for %s: %v", key, err)
		return &ErrNotFound{}
	}

	return nil
}
