package gamestate

import (
	"fmt"

	"github.com/ottobit/simbridge/pkg/messages"
)

// Direction is the robot's facing, one of four discrete values.
type Direction int

const (
	DirectionNorth Direction = iota
	DirectionEast
	DirectionSouth
	DirectionWest
)

func (d Direction) Valid() bool {
	return d >= DirectionNorth && d <= DirectionWest
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BatteryCounts counts collected batteries by color.
type BatteryCounts struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

func (b BatteryCounts) Total() int {
	return b.Red + b.Yellow + b.Green
}

// ProgramStatus is the finite run state of the current program.
type ProgramStatus string

const (
	ProgramStatusIdle      ProgramStatus = "idle"
	ProgramStatusRunning   ProgramStatus = "running"
	ProgramStatusPaused    ProgramStatus = "paused"
	ProgramStatusCompleted ProgramStatus = "completed"
	ProgramStatusError     ProgramStatus = "error"
)

func (s ProgramStatus) Valid() bool {
	switch s {
	case ProgramStatusIdle, ProgramStatusRunning, ProgramStatusPaused,
		ProgramStatusCompleted, ProgramStatusError:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status only leaves via a reset to idle.
func (s ProgramStatus) Terminal() bool {
	return s == ProgramStatusCompleted || s == ProgramStatusError
}

// CanTransition reports whether the status machine allows moving to next.
// idle -> running -> {paused <-> running} -> {completed | error};
// completed and error only reset back to idle.
func (s ProgramStatus) CanTransition(next ProgramStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ProgramStatusIdle:
		return next == ProgramStatusRunning
	case ProgramStatusRunning:
		return next == ProgramStatusPaused || next == ProgramStatusCompleted ||
			next == ProgramStatusError || next == ProgramStatusIdle
	case ProgramStatusPaused:
		return next == ProgramStatusRunning || next == ProgramStatusIdle
	case ProgramStatusCompleted, ProgramStatusError:
		return next == ProgramStatusIdle
	default:
		return false
	}
}

// GameState is the live simulation snapshot. Fields default to zero/idle;
// a created state is never partially null.
type GameState struct {
	MapKey                string        `json:"mapKey"`
	RobotPosition         Position      `json:"robotPosition"`
	RobotDirection        Direction     `json:"robotDirection"`
	ProgramStatus         ProgramStatus `json:"programStatus"`
	CurrentStep           int           `json:"currentStep"`
	TotalSteps            int           `json:"totalSteps"`
	CollectedBatteries    int           `json:"collectedBatteries"`
	CollectedBatteryTypes BatteryCounts `json:"collectedBatteryTypes"`
}

// NewGameState creates the snapshot for a freshly loaded map.
func NewGameState(mapKey string) *GameState {
	return &GameState{
		MapKey:        mapKey,
		ProgramStatus: ProgramStatusIdle,
	}
}

func (g *GameState) Copy() *GameState {
	copy := *g
	return &copy
}

// Validate checks the structural invariants of the snapshot.
func (g *GameState) Validate() error {
	if !g.RobotDirection.Valid() {
		return fmt.Errorf("invalid robot direction: %d", g.RobotDirection)
	}
	if !g.ProgramStatus.Valid() {
		return fmt.Errorf("invalid program status: %s", g.ProgramStatus)
	}
	if g.CurrentStep < 0 || g.CurrentStep > g.TotalSteps {
		return fmt.Errorf("current step %d out of range [0, %d]", g.CurrentStep, g.TotalSteps)
	}
	if g.CollectedBatteries != g.CollectedBatteryTypes.Total() {
		return fmt.Errorf("battery total %d does not match breakdown sum %d",
			g.CollectedBatteries, g.CollectedBatteryTypes.Total())
	}
	return nil
}

// Transition moves the program status, rejecting moves outside the machine.
func (g *GameState) Transition(next ProgramStatus) error {
	if !g.ProgramStatus.CanTransition(next) {
		return fmt.Errorf("illegal status transition: %s -> %s", g.ProgramStatus, next)
	}
	g.ProgramStatus = next
	return nil
}

// setBatteries updates the breakdown and keeps the total in sync.
func (g *GameState) setBatteries(counts BatteryCounts) {
	g.CollectedBatteryTypes = counts
	g.CollectedBatteries = counts.Total()
}

// ApplyProgress records a PROGRESS event on the snapshot.
func (g *GameState) ApplyProgress(data *messages.ProgressData) {
	g.setBatteries(BatteryCounts{
		Red:    data.Collected.ByType.Red,
		Yellow: data.Collected.ByType.Yellow,
		Green:  data.Collected.ByType.Green,
	})
	if data.TotalSteps > 0 {
		g.TotalSteps = data.TotalSteps
	}
	step := data.CurrentStep
	if step < 0 {
		step = 0
	}
	if step > g.TotalSteps {
		step = g.TotalSteps
	}
	g.CurrentStep = step
}

// ApplyVictory records a VICTORY event and moves the status to completed.
func (g *GameState) ApplyVictory(data *messages.VictoryData) {
	g.setBatteries(BatteryCounts{
		Red:    data.Collected.ByType.Red,
		Yellow: data.Collected.ByType.Yellow,
		Green:  data.Collected.ByType.Green,
	})
	g.ProgramStatus = ProgramStatusCompleted
}

// ApplyError records an ERROR event and moves the status to error.
func (g *GameState) ApplyError() {
	g.ProgramStatus = ProgramStatusError
}
