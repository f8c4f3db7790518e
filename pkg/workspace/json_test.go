package workspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceJSON_SaveLoad(t *testing.T) {
	ws := NewWorkspace()
	start := ws.NewBlock(BlockTypeStart)
	move := ws.NewBlock(BlockTypeMoveForward)
	require.NoError(t, move.SetField("STEPS", "3"))
	start.SetNext(move)

	repeat := ws.NewBlock(BlockTypeRepeatRange)
	number := ws.NewBlock(BlockTypeNumber)
	require.NoError(t, number.SetField("NUM", "4"))
	number.SetShadow(true)
	require.NoError(t, repeat.Input(SocketTo).Connect(number))
	move.SetNext(repeat)

	b, err := json.Marshal(ws)
	require.NoError(t, err)

	loaded, err := LoadJSON(b)
	require.NoError(t, err)

	// One top-level chain: start -> move -> repeat range.
	tops := loaded.BlocksOfType(BlockTypeStart)
	require.Len(t, tops, 1)
	gotMove := tops[0].Next()
	require.NotNil(t, gotMove)
	assert.Equal(t, BlockTypeMoveForward, gotMove.Type())
	assert.Equal(t, "3", gotMove.Field("STEPS"))

	gotRepeat := gotMove.Next()
	require.NotNil(t, gotRepeat)
	assert.Equal(t, BlockTypeRepeatRange, gotRepeat.Type())

	gotNumber := gotRepeat.Input(SocketTo).TargetBlock()
	require.NotNil(t, gotNumber)
	assert.Equal(t, "4", gotNumber.Field("NUM"))
	assert.True(t, gotNumber.IsShadow())
}

func TestLoadJSON_Rejects(t *testing.T) {
	_, err := LoadJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestLoadJSON_IsSilent(t *testing.T) {
	ws, err := LoadJSON([]byte(`{"blocks": [{"type": "ottobit_start"}]}`))
	require.NoError(t, err)

	fired := 0
	ws.AddChangeListener(func(Event) {
		fired++
	})

	// Loading happened before the listener attached; only FinishLoading
	// reaches it.
	ws.FinishLoading()
	assert.Equal(t, 1, fired)
	assert.True(t, ws.EventsEnabled())
}
