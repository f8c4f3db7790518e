package workspace

// Block type names. The visual definitions (shape, color, toolbox placement)
// live with the editor; the bridge only needs the structural layout below.
const (
	BlockTypeStart       = "ottobit_start"
	BlockTypeMoveForward = "ottobit_move_forward"
	BlockTypeTurnRight   = "ottobit_turn_right"
	BlockTypeTurnLeft    = "ottobit_turn_left"
	BlockTypeTurnBack    = "ottobit_turn_back"
	BlockTypeCollect     = "ottobit_collect"
	BlockTypeTakeBox     = "ottobit_take_box"
	BlockTypePutBox      = "ottobit_put_box"
	BlockTypeRepeat      = "ottobit_repeat"
	BlockTypeRepeatRange = "ottobit_repeat_range"
	BlockTypeIf          = "ottobit_if"
	BlockTypeWhile       = "ottobit_while"
	BlockTypeCallFunc    = "ottobit_call_function"
	BlockTypeFuncDef     = "ottobit_function_def"
	BlockTypeNumber      = "ottobit_number"
	BlockTypeVariable    = "ottobit_variable"
)

// Socket names on the repeat range block.
const (
	SocketVar  = "VAR"
	SocketFrom = "FROM"
	SocketTo   = "TO"
	SocketBy   = "BY"
	SocketDo   = "DO"
)

// BlockDef is the structural layout of a block type: default field values,
// value input sockets, and statement input sockets.
type BlockDef struct {
	Fields          map[string]string
	Inputs          []string
	StatementInputs []string
}

// Definitions is the static block catalog consumed by NewBlock.
var Definitions = map[string]BlockDef{
	BlockTypeStart:       {},
	BlockTypeMoveForward: {Fields: map[string]string{"STEPS": "1"}},
	BlockTypeTurnRight:   {},
	BlockTypeTurnLeft:    {},
	BlockTypeTurnBack:    {},
	BlockTypeCollect:     {Fields: map[string]string{"COLOR": "green", "COUNT": "1"}},
	BlockTypeTakeBox:     {Fields: map[string]string{"COUNT": "1"}},
	BlockTypePutBox:      {Fields: map[string]string{"COUNT": "1"}},
	BlockTypeRepeat: {
		Fields:          map[string]string{"TIMES": "2"},
		StatementInputs: []string{SocketDo},
	},
	BlockTypeRepeatRange: {
		Inputs:          []string{SocketVar, SocketFrom, SocketTo, SocketBy},
		StatementInputs: []string{SocketDo},
	},
	BlockTypeIf: {
		Fields:          map[string]string{"COND": ""},
		StatementInputs: []string{"THEN"},
	},
	BlockTypeWhile: {
		Fields:          map[string]string{"COND": ""},
		StatementInputs: []string{SocketDo},
	},
	BlockTypeCallFunc: {Fields: map[string]string{"NAME": ""}},
	BlockTypeFuncDef: {
		Fields:          map[string]string{"NAME": ""},
		StatementInputs: []string{"BODY"},
	},
	BlockTypeNumber:   {Fields: map[string]string{"NUM": "0"}},
	BlockTypeVariable: {Fields: map[string]string{"VAR": "i"}},
}
