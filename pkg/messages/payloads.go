package messages

import "encoding/json"

// ActionType identifies a single simulator instruction within a program.
type ActionType string

const (
	ActionForward      ActionType = "forward"
	ActionTurnRight    ActionType = "turnRight"
	ActionTurnLeft     ActionType = "turnLeft"
	ActionTurnBack     ActionType = "turnBack"
	ActionCollect      ActionType = "collect"
	ActionTakeBox      ActionType = "takeBox"
	ActionPutBox       ActionType = "putBox"
	ActionRepeat       ActionType = "repeat"
	ActionRepeatRange  ActionType = "repeatRange"
	ActionIf           ActionType = "if"
	ActionWhile        ActionType = "while"
	ActionCallFunction ActionType = "callFunction"
)

// ProgramData is the compiled form of a visual program, sent with RUN_PROGRAM.
type ProgramData struct {
	Version     string            `json:"version"`
	ProgramName string            `json:"programName"`
	Actions     []ProgramAction   `json:"actions"`
	Functions   []ProgramFunction `json:"functions,omitempty"`
}

type ProgramFunction struct {
	Name string          `json:"name"`
	Body []ProgramAction `json:"body"`
}

type ProgramAction struct {
	Type  ActionType `json:"type"`
	Count int        `json:"count,omitempty"`
	Color string     `json:"color,omitempty"`

	// Control structure fields
	Body         []ProgramAction `json:"body,omitempty"`
	Variable     string          `json:"variable,omitempty"`
	From         int             `json:"from,omitempty"`
	To           int             `json:"to,omitempty"`
	Step         int             `json:"step,omitempty"`
	Condition    string          `json:"condition,omitempty"`
	Then         []ProgramAction `json:"then,omitempty"`
	FunctionName string          `json:"functionName,omitempty"`
}

type LoadMapData struct {
	MapKey string `json:"mapKey"`
}

type RunProgramData struct {
	Program *ProgramData `json:"program"`
}

// BatteryBreakdown counts collected batteries by color.
type BatteryBreakdown struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

func (b BatteryBreakdown) Total() int {
	return b.Red + b.Yellow + b.Green
}

type BatterySummary struct {
	Total  int              `json:"total"`
	ByType BatteryBreakdown `json:"byType"`
}

type VictoryData struct {
	MapKey    string         `json:"mapKey"`
	IsVictory bool           `json:"isVictory"`
	Progress  float64        `json:"progress"`
	Message   string         `json:"message,omitempty"`
	Collected BatterySummary `json:"collected"`
	Required  BatterySummary `json:"required"`
}

type ProgressData struct {
	MapKey      string         `json:"mapKey"`
	Progress    float64        `json:"progress"`
	Message     string         `json:"message,omitempty"`
	CurrentStep int            `json:"currentStep"`
	TotalSteps  int            `json:"totalSteps"`
	Collected   BatterySummary `json:"collected"`
}

type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type StatusData struct {
	MapKey        string `json:"mapKey"`
	ProgramStatus string `json:"programStatus"`
	CurrentStep   int    `json:"currentStep"`
	TotalSteps    int    `json:"totalSteps"`
}

// Relay events (editor <-> actions relay server). These travel over a separate
// socket from the simulator protocol and use an event/data frame.
const (
	RelayEventJoin    = "join"
	RelayEventActions = "actions"
)

type RelayFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RelayJoinData struct {
	ID string `json:"id"`
}

type RelayActionsData struct {
	ID      string   `json:"id,omitempty"`
	Actions []string `json:"actions"`
}
