package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
)

type exportEnvelope struct {
	CurrentState   *gamestate.GameState     `json:"currentState"`
	SessionHistory []*gamestate.GameSession `json:"sessionHistory"`
	ExportTime     string                   `json:"exportTime"`
}

// ExportData serializes the full {currentState, sessionHistory} pair.
func (m *GameStateManager) ExportData() ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	envelope := exportEnvelope{
		CurrentState:   m.currentState,
		SessionHistory: m.sessionHistory,
		ExportTime:     time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export data: %v", err)
	}
	return b, nil
}

// ImportData restores exported data. Missing or invalid fields are tolerated
// and a partial import is accepted; it reports success rather than failing
// over malformed input.
func (m *GameStateManager) ImportData(ctx context.Context, data []byte) bool {
	envelope := exportEnvelope{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Error("Failed to import game data: %v", err)
		return false
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if envelope.CurrentState != nil {
		m.currentState = envelope.CurrentState
	}
	if envelope.SessionHistory != nil {
		sessions := make([]*gamestate.GameSession, 0, len(envelope.SessionHistory))
		for _, session := range envelope.SessionHistory {
			if session == nil || session.ID == "" {
				continue
			}
			sessions = append(sessions, session)
		}
		m.sessionHistory = sessions
	}

	m.saveState(ctx)
	m.saveSessions(ctx)
	return true
}

// ExportArchive wraps ExportData in zstd framing for compact backups.
func (m *GameStateManager) ExportArchive() ([]byte, error) {
	b, err := m.ExportData()
	if err != nil {
		return nil, err
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress export data: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// ImportArchive restores a zstd archive produced by ExportArchive.
func (m *GameStateManager) ImportArchive(ctx context.Context, data []byte) bool {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		log.Error("Failed to open archive: %v", err)
		return false
	}
	defer compReader.Close()

	b, err := io.ReadAll(compReader)
	if err != nil {
		log.Error("Failed to read archive: %v", err)
		return false
	}

	return m.ImportData(ctx, b)
}
