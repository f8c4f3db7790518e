package actionsocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ottobit/simbridge/pkg/messages"
)

// Publisher pushes a run's generated action stream into a relay room. Unlike
// Connect it does not reconnect: a relay push is a one-shot best-effort send
// after a run finishes.
type Publisher struct {
	roomID    string
	conn      *websocket.Conn
	writeLock sync.Mutex
	closeOnce sync.Once
}

// Dial connects a publisher to the relay and joins the room.
func Dial(roomID string, opts Options) (*Publisher, error) {
	conn, _, err := websocket.DefaultDialer.Dial(opts.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %v", err)
	}

	p := &Publisher{
		roomID: roomID,
		conn:   conn,
	}
	if err := p.writeFrame(messages.RelayEventJoin, &messages.RelayJoinData{ID: roomID}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to join room: %v", err)
	}
	return p, nil
}

// SendActions relays an action list to the room's listeners.
func (p *Publisher) SendActions(actions []string) error {
	return p.writeFrame(messages.RelayEventActions, &messages.RelayActionsData{
		ID:      p.roomID,
		Actions: actions,
	})
}

func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		p.conn.Close()
	})
	return nil
}

func (p *Publisher) writeFrame(event string, data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(&messages.RelayFrame{Event: event, Data: b})
	if err != nil {
		return err
	}

	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}
