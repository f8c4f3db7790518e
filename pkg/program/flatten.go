package program

import "github.com/ottobit/simbridge/pkg/messages"

// maxFlattenedActions caps loop expansion so a hostile program cannot blow
// up the relay payload. maxFlattenDepth bounds recursive function calls.
const (
	maxFlattenedActions = 10000
	maxFlattenDepth     = 64
)

// Flatten expands a program into the linear action-name stream relayed to
// room listeners. Loops unroll; conditionals contribute their branch bodies
// as written, since the relay has no simulator state to evaluate them.
func Flatten(program *messages.ProgramData) []string {
	if program == nil {
		return nil
	}

	functions := make(map[string][]messages.ProgramAction, len(program.Functions))
	for _, fn := range program.Functions {
		functions[fn.Name] = fn.Body
	}

	out := []string{}
	flattenActions(program.Actions, functions, &out, 0)
	return out
}

func flattenActions(actions []messages.ProgramAction, functions map[string][]messages.ProgramAction, out *[]string, depth int) {
	if depth > maxFlattenDepth {
		return
	}
	for _, action := range actions {
		if len(*out) >= maxFlattenedActions {
			return
		}

		switch action.Type {
		case messages.ActionRepeat:
			count := action.Count
			if count < 1 {
				count = 1
			}
			for i := 0; i < count; i++ {
				flattenActions(action.Body, functions, out, depth+1)
			}

		case messages.ActionRepeatRange:
			step := action.Step
			if step < 1 {
				step = 1
			}
			for i := action.From; i <= action.To; i += step {
				flattenActions(action.Body, functions, out, depth+1)
				if len(*out) >= maxFlattenedActions {
					return
				}
			}

		case messages.ActionIf:
			flattenActions(action.Then, functions, out, depth+1)

		case messages.ActionWhile:
			flattenActions(action.Body, functions, out, depth+1)

		case messages.ActionCallFunction:
			flattenActions(functions[action.FunctionName], functions, out, depth+1)

		default:
			*out = append(*out, string(action.Type))
		}
	}
}
