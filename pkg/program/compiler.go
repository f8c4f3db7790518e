// Package program compiles a visual program graph into the action sequence
// the simulator executes.
package program

import (
	"fmt"
	"strconv"

	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/ottobit/simbridge/pkg/workspace"
)

const programVersion = "1.0.0"

// Compile walks the workspace from its start block and produces the program
// payload for RUN_PROGRAM. Blocks of unknown type are skipped. Function
// definitions anywhere at the top level compile into the program's function
// table.
func Compile(ws *workspace.Workspace) (*messages.ProgramData, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace is required")
	}

	starts := ws.BlocksOfType(workspace.BlockTypeStart)
	if len(starts) == 0 {
		return nil, fmt.Errorf("workspace has no start block")
	}

	program := &messages.ProgramData{
		Version:     programVersion,
		ProgramName: "user_program",
		Actions:     compileChain(starts[0].Next()),
	}

	for _, def := range ws.BlocksOfType(workspace.BlockTypeFuncDef) {
		name := def.Field("NAME")
		if name == "" {
			continue
		}
		body := []messages.ProgramAction{}
		if input := def.Input("BODY"); input != nil {
			body = compileChain(input.TargetBlock())
		}
		program.Functions = append(program.Functions, messages.ProgramFunction{
			Name: name,
			Body: body,
		})
	}

	return program, nil
}

func compileChain(block *workspace.Block) []messages.ProgramAction {
	actions := []messages.ProgramAction{}
	for ; block != nil; block = block.Next() {
		if action, ok := compileBlock(block); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

func compileBlock(block *workspace.Block) (messages.ProgramAction, bool) {
	switch block.Type() {
	case workspace.BlockTypeMoveForward:
		return messages.ProgramAction{
			Type:  messages.ActionForward,
			Count: fieldInt(block, "STEPS", 1),
		}, true

	case workspace.BlockTypeTurnRight:
		return messages.ProgramAction{Type: messages.ActionTurnRight}, true

	case workspace.BlockTypeTurnLeft:
		return messages.ProgramAction{Type: messages.ActionTurnLeft}, true

	case workspace.BlockTypeTurnBack:
		return messages.ProgramAction{Type: messages.ActionTurnBack}, true

	case workspace.BlockTypeCollect:
		return messages.ProgramAction{
			Type:  messages.ActionCollect,
			Color: block.Field("COLOR"),
			Count: fieldInt(block, "COUNT", 1),
		}, true

	case workspace.BlockTypeTakeBox:
		return messages.ProgramAction{
			Type:  messages.ActionTakeBox,
			Count: fieldInt(block, "COUNT", 1),
		}, true

	case workspace.BlockTypePutBox:
		return messages.ProgramAction{
			Type:  messages.ActionPutBox,
			Count: fieldInt(block, "COUNT", 1),
		}, true

	case workspace.BlockTypeRepeat:
		return messages.ProgramAction{
			Type:  messages.ActionRepeat,
			Count: fieldInt(block, "TIMES", 1),
			Body:  statementBody(block, workspace.SocketDo),
		}, true

	case workspace.BlockTypeRepeatRange:
		return compileRepeatRange(block), true

	case workspace.BlockTypeIf:
		return messages.ProgramAction{
			Type:      messages.ActionIf,
			Condition: block.Field("COND"),
			Then:      statementBody(block, "THEN"),
		}, true

	case workspace.BlockTypeWhile:
		return messages.ProgramAction{
			Type:      messages.ActionWhile,
			Condition: block.Field("COND"),
			Body:      statementBody(block, workspace.SocketDo),
		}, true

	case workspace.BlockTypeCallFunc:
		return messages.ProgramAction{
			Type:         messages.ActionCallFunction,
			FunctionName: block.Field("NAME"),
		}, true

	default:
		log.Debug("Skipping unknown block type %s", block.Type())
		return messages.ProgramAction{}, false
	}
}

// compileRepeatRange reads the loop bounds from its value sockets, falling
// back to the placeholder defaults when a socket is empty.
func compileRepeatRange(block *workspace.Block) messages.ProgramAction {
	return messages.ProgramAction{
		Type:     messages.ActionRepeatRange,
		Variable: socketField(block, workspace.SocketVar, "VAR", "i"),
		From:     socketInt(block, workspace.SocketFrom, 1),
		To:       socketInt(block, workspace.SocketTo, 5),
		Step:     socketInt(block, workspace.SocketBy, 1),
		Body:     statementBody(block, workspace.SocketDo),
	}
}

func statementBody(block *workspace.Block, socket string) []messages.ProgramAction {
	input := block.Input(socket)
	if input == nil {
		return []messages.ProgramAction{}
	}
	return compileChain(input.TargetBlock())
}

func socketField(block *workspace.Block, socket, field, fallback string) string {
	input := block.Input(socket)
	if input == nil || input.TargetBlock() == nil {
		return fallback
	}
	if value := input.TargetBlock().Field(field); value != "" {
		return value
	}
	return fallback
}

func socketInt(block *workspace.Block, socket string, fallback int) int {
	raw := socketField(block, socket, "NUM", "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func fieldInt(block *workspace.Block, field string, fallback int) int {
	n, err := strconv.Atoi(block.Field(field))
	if err != nil {
		return fallback
	}
	return n
}
