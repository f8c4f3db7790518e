package state

import (
	"context"
	"testing"

	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.SetCurrentState(ctx, gamestate.NewGameState("basic1"))
	id := m.StartSession(ctx, "basic1", nil)
	m.EndSession(ctx, id, gamestate.SessionResultVictory, floatPtr(95))

	exported, err := m.ExportData()
	require.NoError(t, err)

	restored, _ := newTestManager(t)
	require.True(t, restored.ImportData(ctx, exported))

	got := restored.GetCurrentState()
	require.NotNil(t, got)
	assert.Equal(t, "basic1", got.MapKey)
	assert.Equal(t, m.GetSessionHistory(), restored.GetSessionHistory())
	assert.Equal(t, 95.0, restored.GetBestScore("basic1"))
}

func TestImportData_MalformedInput(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	m.SetCurrentState(ctx, gamestate.NewGameState("basic1"))

	assert.False(t, m.ImportData(ctx, []byte("{not json")))

	// A failed import leaves existing data alone.
	got := m.GetCurrentState()
	require.NotNil(t, got)
	assert.Equal(t, "basic1", got.MapKey)
}

func TestImportData_PartialAndInvalidSessions(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	data := []byte(`{
		"currentState": null,
		"sessionHistory": [
			{"id": "session_1_abc", "startTime": 1000, "mapKey": "basic1"},
			{"id": "", "startTime": 2000, "mapKey": "basic1"},
			null
		]
	}`)
	require.True(t, m.ImportData(ctx, data))

	// Sessions without an id are dropped; the rest import.
	sessions := m.GetSessionHistory()
	require.Len(t, sessions, 1)
	assert.Equal(t, "session_1_abc", sessions[0].ID)
	assert.Nil(t, m.GetCurrentState())
}

func TestExportImportArchive(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.SetCurrentState(ctx, gamestate.NewGameState("maze2"))
	id := m.StartSession(ctx, "maze2", nil)
	m.EndSession(ctx, id, gamestate.SessionResultDefeat, nil)

	archive, err := m.ExportArchive()
	require.NoError(t, err)

	plain, err := m.ExportData()
	require.NoError(t, err)
	assert.NotEqual(t, plain, archive)

	restored, _ := newTestManager(t)
	require.True(t, restored.ImportArchive(ctx, archive))
	assert.Equal(t, m.GetSessionHistory(), restored.GetSessionHistory())

	assert.False(t, restored.ImportArchive(ctx, []byte("not an archive")))
}
