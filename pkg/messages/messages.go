package messages

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1024
)

// MessageType tags a message exchanged between the program editor and the
// simulator. The set is closed: inbound messages with any other tag are dropped.
type MessageType string

// Editor -> simulator
const (
	MessageTypeLoadMap      MessageType = "LOAD_MAP"
	MessageTypeRunProgram   MessageType = "RUN_PROGRAM"
	MessageTypeGetStatus    MessageType = "GET_STATUS"
	MessageTypePauseProgram MessageType = "PAUSE_PROGRAM"
	MessageTypeStopProgram  MessageType = "STOP_PROGRAM"
)

// Simulator -> editor
const (
	MessageTypeReady          MessageType = "READY"
	MessageTypeVictory        MessageType = "VICTORY"
	MessageTypeProgress       MessageType = "PROGRESS"
	MessageTypeError          MessageType = "ERROR"
	MessageTypeStatus         MessageType = "STATUS"
	MessageTypeProgramStarted MessageType = "PROGRAM_STARTED"
	MessageTypeProgramPaused  MessageType = "PROGRAM_PAUSED"
	MessageTypeProgramStopped MessageType = "PROGRAM_STOPPED"
)

// Message sources
const (
	SourceEditor    = "program-editor"
	SourceSimulator = "robot-simulator"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeLoadMap,
		MessageTypeRunProgram,
		MessageTypeGetStatus,
		MessageTypePauseProgram,
		MessageTypeStopProgram,
		MessageTypeReady,
		MessageTypeVictory,
		MessageTypeProgress,
		MessageTypeError,
		MessageTypeStatus,
		MessageTypeProgramStarted,
		MessageTypeProgramPaused,
		MessageTypeProgramStopped:
		return true
	default:
		return false
	}
}

// Message represents the wire envelope for editor <-> simulator traffic.
// Seq correlates a request with its reply: a reply carries the request's
// Seq in ReplyTo.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
	Seq       uint64          `json:"seq,omitempty"`
	ReplyTo   uint64          `json:"replyTo,omitempty"`
}

// New creates a message of the given type with a marshaled payload.
func New(msgType MessageType, data interface{}, source string) (*Message, error) {
	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %v", err)
		}
		payload = b
	}

	return &Message{
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
		Source:    source,
	}, nil
}

// ErrUnknownType is returned when a message carries a tag outside the closed set.
type ErrUnknownType struct {
	Type string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

func IsUnknownType(err error) bool {
	_, ok := err.(*ErrUnknownType)
	return ok
}
