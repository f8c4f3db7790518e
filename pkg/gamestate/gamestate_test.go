package gamestate

import (
	"testing"

	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from ProgramStatus
		to   ProgramStatus
		want bool
	}{
		{"idle to running", ProgramStatusIdle, ProgramStatusRunning, true},
		{"idle to paused", ProgramStatusIdle, ProgramStatusPaused, false},
		{"idle to completed", ProgramStatusIdle, ProgramStatusCompleted, false},
		{"running to paused", ProgramStatusRunning, ProgramStatusPaused, true},
		{"running to completed", ProgramStatusRunning, ProgramStatusCompleted, true},
		{"running to error", ProgramStatusRunning, ProgramStatusError, true},
		{"running to idle", ProgramStatusRunning, ProgramStatusIdle, true},
		{"paused to running", ProgramStatusPaused, ProgramStatusRunning, true},
		{"paused to completed", ProgramStatusPaused, ProgramStatusCompleted, false},
		{"paused to idle", ProgramStatusPaused, ProgramStatusIdle, true},
		{"completed to idle", ProgramStatusCompleted, ProgramStatusIdle, true},
		{"completed to running", ProgramStatusCompleted, ProgramStatusRunning, false},
		{"error to idle", ProgramStatusError, ProgramStatusIdle, true},
		{"error to paused", ProgramStatusError, ProgramStatusPaused, false},
		{"self transition", ProgramStatusRunning, ProgramStatusRunning, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestGameState_Transition(t *testing.T) {
	state := NewGameState("basic1")
	require.Equal(t, ProgramStatusIdle, state.ProgramStatus)

	require.NoError(t, state.Transition(ProgramStatusRunning))
	require.NoError(t, state.Transition(ProgramStatusPaused))
	require.NoError(t, state.Transition(ProgramStatusRunning))
	require.NoError(t, state.Transition(ProgramStatusCompleted))

	err := state.Transition(ProgramStatusRunning)
	require.Error(t, err)
	assert.Equal(t, ProgramStatusCompleted, state.ProgramStatus)

	assert.NoError(t, state.Transition(ProgramStatusIdle))
}

func TestGameState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		state   *GameState
		wantErr bool
	}{
		{
			name:  "fresh state",
			state: NewGameState("basic1"),
		},
		{
			name: "consistent battery counts",
			state: &GameState{
				MapKey:                "basic1",
				ProgramStatus:         ProgramStatusRunning,
				CurrentStep:           2,
				TotalSteps:            5,
				CollectedBatteries:    3,
				CollectedBatteryTypes: BatteryCounts{Red: 1, Green: 2},
			},
		},
		{
			name: "battery total out of sync with breakdown",
			state: &GameState{
				MapKey:                "basic1",
				ProgramStatus:         ProgramStatusRunning,
				CollectedBatteries:    4,
				CollectedBatteryTypes: BatteryCounts{Red: 1, Green: 2},
			},
			wantErr: true,
		},
		{
			name: "step past total",
			state: &GameState{
				MapKey:        "basic1",
				ProgramStatus: ProgramStatusRunning,
				CurrentStep:   6,
				TotalSteps:    5,
			},
			wantErr: true,
		},
		{
			name: "negative step",
			state: &GameState{
				MapKey:        "basic1",
				ProgramStatus: ProgramStatusIdle,
				CurrentStep:   -1,
			},
			wantErr: true,
		},
		{
			name: "direction out of range",
			state: &GameState{
				MapKey:         "basic1",
				ProgramStatus:  ProgramStatusIdle,
				RobotDirection: Direction(4),
			},
			wantErr: true,
		},
		{
			name: "unknown status",
			state: &GameState{
				MapKey:        "basic1",
				ProgramStatus: ProgramStatus("crashed"),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGameState_ApplyProgress(t *testing.T) {
	state := NewGameState("basic1")
	require.NoError(t, state.Transition(ProgramStatusRunning))

	state.ApplyProgress(&messages.ProgressData{
		CurrentStep: 3,
		TotalSteps:  6,
		Collected: messages.BatterySummary{
			Total:  3,
			ByType: messages.BatteryBreakdown{Red: 1, Yellow: 1, Green: 1},
		},
	})
	assert.Equal(t, 3, state.CurrentStep)
	assert.Equal(t, 6, state.TotalSteps)
	assert.Equal(t, 3, state.CollectedBatteries)
	assert.NoError(t, state.Validate())

	// Steps outside [0, TotalSteps] clamp rather than corrupt the snapshot.
	state.ApplyProgress(&messages.ProgressData{CurrentStep: 99, TotalSteps: 6})
	assert.Equal(t, 6, state.CurrentStep)

	state.ApplyProgress(&messages.ProgressData{CurrentStep: -2, TotalSteps: 6})
	assert.Equal(t, 0, state.CurrentStep)
	assert.NoError(t, state.Validate())
}

func TestGameState_ApplyVictory(t *testing.T) {
	state := NewGameState("basic1")
	require.NoError(t, state.Transition(ProgramStatusRunning))

	state.ApplyVictory(&messages.VictoryData{
		IsVictory: true,
		Collected: messages.BatterySummary{
			Total:  2,
			ByType: messages.BatteryBreakdown{Green: 2},
		},
	})
	assert.Equal(t, ProgramStatusCompleted, state.ProgramStatus)
	assert.Equal(t, 2, state.CollectedBatteries)
	assert.Equal(t, BatteryCounts{Green: 2}, state.CollectedBatteryTypes)
	assert.NoError(t, state.Validate())
}

func TestGameState_Copy(t *testing.T) {
	state := NewGameState("basic1")
	state.RobotPosition = Position{X: 2, Y: 3}

	copied := state.Copy()
	copied.RobotPosition.X = 9
	copied.ProgramStatus = ProgramStatusError

	assert.Equal(t, 2, state.RobotPosition.X)
	assert.Equal(t, ProgramStatusIdle, state.ProgramStatus)
}

func TestGameSession_Closed(t *testing.T) {
	session := &GameSession{ID: "session_1_abc", MapKey: "basic1"}
	assert.False(t, session.Closed())

	session.Result = SessionResultDefeat
	assert.True(t, session.Closed())
}
