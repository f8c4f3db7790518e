package program

import (
	"testing"

	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name    string
		program *messages.ProgramData
		want    []string
	}{
		{
			name:    "nil program",
			program: nil,
			want:    nil,
		},
		{
			name: "plain actions",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{Type: messages.ActionForward},
					{Type: messages.ActionTurnRight},
					{Type: messages.ActionCollect, Color: "green"},
				},
			},
			want: []string{"forward", "turnRight", "collect"},
		},
		{
			name: "repeat unrolls",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{
						Type:  messages.ActionRepeat,
						Count: 3,
						Body:  []messages.ProgramAction{{Type: messages.ActionForward}},
					},
				},
			},
			want: []string{"forward", "forward", "forward"},
		},
		{
			name: "repeat range steps through its bounds",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{
						Type: messages.ActionRepeatRange,
						From: 1,
						To:   5,
						Step: 2,
						Body: []messages.ProgramAction{
							{Type: messages.ActionForward},
							{Type: messages.ActionTurnLeft},
						},
					},
				},
			},
			want: []string{"forward", "turnLeft", "forward", "turnLeft", "forward", "turnLeft"},
		},
		{
			name: "conditionals contribute their bodies",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{
						Type:      messages.ActionIf,
						Condition: "batteryAhead",
						Then:      []messages.ProgramAction{{Type: messages.ActionCollect}},
					},
					{
						Type:      messages.ActionWhile,
						Condition: "pathAhead",
						Body:      []messages.ProgramAction{{Type: messages.ActionForward}},
					},
				},
			},
			want: []string{"collect", "forward"},
		},
		{
			name: "function calls expand",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{Type: messages.ActionForward},
					{Type: messages.ActionCallFunction, FunctionName: "dance"},
				},
				Functions: []messages.ProgramFunction{
					{
						Name: "dance",
						Body: []messages.ProgramAction{
							{Type: messages.ActionTurnLeft},
							{Type: messages.ActionTurnRight},
						},
					},
				},
			},
			want: []string{"forward", "turnLeft", "turnRight"},
		},
		{
			name: "unknown function expands to nothing",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{Type: messages.ActionCallFunction, FunctionName: "missing"},
					{Type: messages.ActionForward},
				},
			},
			want: []string{"forward"},
		},
		{
			name: "zero repeat count runs once",
			program: &messages.ProgramData{
				Actions: []messages.ProgramAction{
					{Type: messages.ActionRepeat, Body: []messages.ProgramAction{{Type: messages.ActionForward}}},
				},
			},
			want: []string{"forward"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flatten(tt.program))
		})
	}
}

func TestFlatten_CapsExpansion(t *testing.T) {
	program := &messages.ProgramData{
		Actions: []messages.ProgramAction{
			{
				Type:  messages.ActionRepeat,
				Count: 20000,
				Body:  []messages.ProgramAction{{Type: messages.ActionForward}},
			},
		},
	}
	assert.Len(t, Flatten(program), maxFlattenedActions)
}

func TestFlatten_BoundsRecursiveFunctions(t *testing.T) {
	// A function calling itself with no emitted actions must still
	// terminate instead of recursing forever.
	program := &messages.ProgramData{
		Actions: []messages.ProgramAction{
			{Type: messages.ActionCallFunction, FunctionName: "loop"},
		},
		Functions: []messages.ProgramFunction{
			{
				Name: "loop",
				Body: []messages.ProgramAction{
					{Type: messages.ActionCallFunction, FunctionName: "loop"},
				},
			},
		},
	}
	assert.Empty(t, Flatten(program))
}
