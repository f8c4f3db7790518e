package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/repositories"
)

// GameStateManager owns the live game state and the session history.
// It is constructed once at startup and passed to consumers by reference;
// it is the single writer to the underlying repository. Concurrent callers
// are serialized per call (last write wins), which matches a page where only
// one controller component drives state at a time.
type GameStateManager struct {
	lock           sync.Mutex
	repository     repositories.Repository
	currentState   *gamestate.GameState
	sessionHistory []*gamestate.GameSession
}

// NewGameStateManager loads persisted state from the repository. Corrupt or
// missing values load as empty; the manager never fails to construct over
// bad data.
func NewGameStateManager(ctx context.Context, repository repositories.Repository) *GameStateManager {
	m := &GameStateManager{
		repository: repository,
	}

	state, err := repository.LoadState(ctx)
	if err != nil {
		if !repositories.IsNotFound(err) {
			log.Error("Failed to load game state: %v", err)
		}
	} else {
		m.currentState = state
	}

	sessions, err := repository.LoadSessions(ctx)
	if err != nil {
		if !repositories.IsNotFound(err) {
			log.Error("Failed to load session history: %v", err)
		}
	} else {
		m.sessionHistory = sessions
	}

	return m
}

// GetCurrentState returns a copy of the current state, or nil if no map
// is loaded. Callers must handle nil.
func (m *GameStateManager) GetCurrentState() *gamestate.GameState {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.currentState == nil {
		return nil
	}
	return m.currentState.Copy()
}

func (m *GameStateManager) SetCurrentState(ctx context.Context, state *gamestate.GameState) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.currentState = state
	m.saveState(ctx)
}

// StateUpdate is a partial state; nil fields are left untouched. Setting
// CollectedBatteryTypes also recomputes the battery total so the sum
// invariant holds.
type StateUpdate struct {
	MapKey                *string
	RobotPosition         *gamestate.Position
	RobotDirection        *gamestate.Direction
	ProgramStatus         *gamestate.ProgramStatus
	CurrentStep           *int
	TotalSteps            *int
	CollectedBatteryTypes *gamestate.BatteryCounts
}

// UpdateState merges a partial update onto the existing state. It is a no-op
// when no state exists.
func (m *GameStateManager) UpdateState(ctx context.Context, update StateUpdate) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.currentState == nil {
		return
	}

	if update.MapKey != nil {
		m.currentState.MapKey = *update.MapKey
	}
	if update.RobotPosition != nil {
		m.currentState.RobotPosition = *update.RobotPosition
	}
	if update.RobotDirection != nil {
		m.currentState.RobotDirection = *update.RobotDirection
	}
	if update.ProgramStatus != nil {
		m.currentState.ProgramStatus = *update.ProgramStatus
	}
	if update.CurrentStep != nil {
		m.currentState.CurrentStep = *update.CurrentStep
	}
	if update.TotalSteps != nil {
		m.currentState.TotalSteps = *update.TotalSteps
	}
	if update.CollectedBatteryTypes != nil {
		m.currentState.CollectedBatteryTypes = *update.CollectedBatteryTypes
		m.currentState.CollectedBatteries = update.CollectedBatteryTypes.Total()
	}

	m.saveState(ctx)
}

// ResetState clears to "no state", not to a default GameState.
func (m *GameStateManager) ResetState(ctx context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.currentState = nil
	m.saveState(ctx)
}

// StartSession opens a new session and returns its id. It deliberately does
// not check for an already-open session; preventing concurrent sessions is
// the caller's responsibility.
func (m *GameStateManager) StartSession(ctx context.Context, mapKey string, program json.RawMessage) string {
	session := &gamestate.GameSession{
		ID:        generateSessionID(),
		StartTime: time.Now().UnixMilli(),
		MapKey:    mapKey,
		Program:   program,
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.sessionHistory = append(m.sessionHistory, session)
	m.saveSessions(ctx)
	return session.ID
}

// EndSession closes the session with the given id. An unknown id is a silent
// no-op: the session may have been cleared by a reset. A session closes at
// most once; repeat calls leave the record untouched.
func (m *GameStateManager) EndSession(ctx context.Context, sessionID string, result gamestate.SessionResult, score *float64) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, session := range m.sessionHistory {
		if session.ID != sessionID {
			continue
		}
		if session.Closed() {
			return
		}
		session.EndTime = time.Now().UnixMilli()
		session.Result = result
		session.Score = score
		session.TimeSpent = session.EndTime - session.StartTime
		m.saveSessions(ctx)
		return
	}
}

// GetSessionHistory returns a copy of the session list.
func (m *GameStateManager) GetSessionHistory() []*gamestate.GameSession {
	m.lock.Lock()
	defer m.lock.Unlock()
	sessions := make([]*gamestate.GameSession, 0, len(m.sessionHistory))
	for _, session := range m.sessionHistory {
		sessions = append(sessions, session.Copy())
	}
	return sessions
}

// GetBestScore returns the highest score among victories on the given map,
// or 0 when there are none.
func (m *GameStateManager) GetBestScore(mapKey string) float64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	best := 0.0
	for _, session := range m.sessionHistory {
		if session.MapKey != mapKey || session.Result != gamestate.SessionResultVictory {
			continue
		}
		if session.Score != nil && *session.Score > best {
			best = *session.Score
		}
	}
	return best
}

// GetCompletionRate returns the victory percentage for the given map in
// [0, 100]. A map with no sessions reports 0.
func (m *GameStateManager) GetCompletionRate(mapKey string) float64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	total := 0
	victories := 0
	for _, session := range m.sessionHistory {
		if session.MapKey != mapKey {
			continue
		}
		total++
		if session.Result == gamestate.SessionResultVictory {
			victories++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(victories) / float64(total) * 100
}

// GetTotalPlayTime sums TimeSpent over all sessions, in milliseconds.
// Sessions that never closed contribute 0.
func (m *GameStateManager) GetTotalPlayTime() int64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	var total int64
	for _, session := range m.sessionHistory {
		total += session.TimeSpent
	}
	return total
}

// ClearAllData drops the current state and the full session history.
func (m *GameStateManager) ClearAllData(ctx context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.currentState = nil
	m.sessionHistory = nil
	m.saveState(ctx)
	m.saveSessions(ctx)
}

func generateSessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// saveState persists the current state. Write-through is best effort:
// storage failures are logged, not propagated. Callers hold the lock.
func (m *GameStateManager) saveState(ctx context.Context) {
	if err := m.repository.SaveState(ctx, m.currentState); err != nil {
		log.Error("Failed to save game state: %v", err)
	}
}

func (m *GameStateManager) saveSessions(ctx context.Context) {
	if err := m.repository.SaveSessions(ctx, m.sessionHistory); err != nil {
		log.Error("Failed to save session history: %v", err)
	}
}
