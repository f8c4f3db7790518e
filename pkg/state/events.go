package state

import (
	"context"
	"encoding/json"

	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
)

// HandleMessage applies a protocol event to the live state. It is the single
// dispatch point driving the program status machine. Events that do not
// mutate state (READY, STATUS) and unknown payloads are ignored; victory and
// progress events only apply while a program is active.
func (m *GameStateManager) HandleMessage(ctx context.Context, msg *messages.Message) {
	if msg == nil {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	switch msg.Type {
	case messages.MessageTypeLoadMap:
		data := &messages.LoadMapData{}
		if err := json.Unmarshal(msg.Data, data); err != nil {
			log.Debug("Dropping malformed LOAD_MAP payload: %v", err)
			return
		}
		m.currentState = gamestate.NewGameState(data.MapKey)
		m.saveState(ctx)

	case messages.MessageTypeRunProgram:
		// A new run resets a terminal status back to idle.
		if m.currentState == nil || !m.currentState.ProgramStatus.Terminal() {
			return
		}
		m.currentState.ProgramStatus = gamestate.ProgramStatusIdle
		m.currentState.CurrentStep = 0
		m.saveState(ctx)

	case messages.MessageTypeProgramStarted:
		m.transition(ctx, gamestate.ProgramStatusRunning)

	case messages.MessageTypeProgramPaused:
		m.transition(ctx, gamestate.ProgramStatusPaused)

	case messages.MessageTypeProgramStopped:
		m.transition(ctx, gamestate.ProgramStatusIdle)

	case messages.MessageTypeProgress:
		if m.currentState == nil || m.currentState.ProgramStatus == gamestate.ProgramStatusIdle {
			return
		}
		data := &messages.ProgressData{}
		if err := json.Unmarshal(msg.Data, data); err != nil {
			log.Debug("Dropping malformed PROGRESS payload: %v", err)
			return
		}
		m.currentState.ApplyProgress(data)
		m.saveState(ctx)

	case messages.MessageTypeVictory:
		if m.currentState == nil || m.currentState.ProgramStatus == gamestate.ProgramStatusIdle {
			return
		}
		data := &messages.VictoryData{}
		if err := json.Unmarshal(msg.Data, data); err != nil {
			log.Debug("Dropping malformed VICTORY payload: %v", err)
			return
		}
		m.currentState.ApplyVictory(data)
		m.saveState(ctx)

	case messages.MessageTypeError:
		if m.currentState == nil {
			return
		}
		m.currentState.ApplyError()
		m.saveState(ctx)
	}
}

func (m *GameStateManager) transition(ctx context.Context, next gamestate.ProgramStatus) {
	if m.currentState == nil {
		return
	}
	if err := m.currentState.Transition(next); err != nil {
		log.Debug("Ignoring status event: %v", err)
		return
	}
	m.saveState(ctx)
}
