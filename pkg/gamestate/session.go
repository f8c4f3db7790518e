package gamestate

import "encoding/json"

// SessionResult is the outcome of a closed session.
type SessionResult string

const (
	SessionResultVictory SessionResult = "victory"
	SessionResultDefeat  SessionResult = "defeat"
	SessionResultError   SessionResult = "error"
)

func (r SessionResult) Valid() bool {
	switch r {
	case SessionResultVictory, SessionResultDefeat, SessionResultError:
		return true
	default:
		return false
	}
}

// GameSession records one run of a program against a map. Result stays empty
// until the session is closed; a closed session is never mutated again.
type GameSession struct {
	ID        string          `json:"id"`
	StartTime int64           `json:"startTime"`
	EndTime   int64           `json:"endTime,omitempty"`
	MapKey    string          `json:"mapKey"`
	Program   json.RawMessage `json:"program,omitempty"`
	Result    SessionResult   `json:"result,omitempty"`
	Score     *float64        `json:"score,omitempty"`
	TimeSpent int64           `json:"timeSpent,omitempty"`
}

// Closed reports whether the session has been ended.
func (s *GameSession) Closed() bool {
	return s.Result != ""
}

func (s *GameSession) Copy() *GameSession {
	copy := *s
	if s.Score != nil {
		score := *s.Score
		copy.Score = &score
	}
	if s.Program != nil {
		copy.Program = append(json.RawMessage(nil), s.Program...)
	}
	return &copy
}
