package state

import (
	"context"
	"testing"

	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulatorMessage(t *testing.T, msgType messages.MessageType, data interface{}) *messages.Message {
	t.Helper()
	msg, err := messages.New(msgType, data, messages.SourceSimulator)
	require.NoError(t, err)
	return msg
}

func TestHandleMessage_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeLoadMap, &messages.LoadMapData{MapKey: "basic1"}))
	got := m.GetCurrentState()
	require.NotNil(t, got)
	assert.Equal(t, "basic1", got.MapKey)
	assert.Equal(t, gamestate.ProgramStatusIdle, got.ProgramStatus)

	// Progress before the program starts is stale traffic; drop it.
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgress, &messages.ProgressData{
		CurrentStep: 2,
		TotalSteps:  4,
	}))
	assert.Equal(t, 0, m.GetCurrentState().CurrentStep)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramStarted, nil))
	assert.Equal(t, gamestate.ProgramStatusRunning, m.GetCurrentState().ProgramStatus)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgress, &messages.ProgressData{
		CurrentStep: 2,
		TotalSteps:  4,
		Collected: messages.BatterySummary{
			Total:  1,
			ByType: messages.BatteryBreakdown{Green: 1},
		},
	}))
	got = m.GetCurrentState()
	assert.Equal(t, 2, got.CurrentStep)
	assert.Equal(t, 1, got.CollectedBatteries)
	assert.NoError(t, got.Validate())

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeVictory, &messages.VictoryData{
		IsVictory: true,
		Collected: messages.BatterySummary{
			Total:  2,
			ByType: messages.BatteryBreakdown{Green: 2},
		},
	}))
	got = m.GetCurrentState()
	assert.Equal(t, gamestate.ProgramStatusCompleted, got.ProgramStatus)
	assert.Equal(t, 2, got.CollectedBatteries)

	// A new run resets the terminal status back to idle.
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeRunProgram, &messages.RunProgramData{}))
	got = m.GetCurrentState()
	assert.Equal(t, gamestate.ProgramStatusIdle, got.ProgramStatus)
	assert.Equal(t, 0, got.CurrentStep)
}

func TestHandleMessage_PauseResumeStop(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeLoadMap, &messages.LoadMapData{MapKey: "basic1"}))

	// Pausing an idle program is an illegal transition and is ignored.
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramPaused, nil))
	assert.Equal(t, gamestate.ProgramStatusIdle, m.GetCurrentState().ProgramStatus)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramStarted, nil))
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramPaused, nil))
	assert.Equal(t, gamestate.ProgramStatusPaused, m.GetCurrentState().ProgramStatus)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramStarted, nil))
	assert.Equal(t, gamestate.ProgramStatusRunning, m.GetCurrentState().ProgramStatus)

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramStopped, nil))
	assert.Equal(t, gamestate.ProgramStatusIdle, m.GetCurrentState().ProgramStatus)
}

func TestHandleMessage_Error(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	// No state loaded: nothing to mark.
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeError, &messages.ErrorData{Message: "boom"}))
	assert.Nil(t, m.GetCurrentState())

	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeLoadMap, &messages.LoadMapData{MapKey: "basic1"}))
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeProgramStarted, nil))
	m.HandleMessage(ctx, simulatorMessage(t, messages.MessageTypeError, &messages.ErrorData{Message: "boom"}))
	assert.Equal(t, gamestate.ProgramStatusError, m.GetCurrentState().ProgramStatus)
}

func TestHandleMessage_IgnoresMalformedAndNil(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.HandleMessage(ctx, nil)

	m.HandleMessage(ctx, &messages.Message{
		Type: messages.MessageTypeLoadMap,
		Data: []byte("{not json"),
	})
	assert.Nil(t, m.GetCurrentState())
}
