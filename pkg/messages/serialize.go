package messages

import (
	"encoding/json"
	"fmt"
)

func SerializeMessage(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return b, nil
}

// DeserializeMessage parses a wire frame. A frame that is not valid JSON or
// that carries a type outside the closed set is an error; callers drop it.
func DeserializeMessage(data []byte) (*Message, error) {
	message := &Message{}
	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	if !message.Type.Valid() {
		return nil, &ErrUnknownType{Type: string(message.Type)}
	}

	return message, nil
}
