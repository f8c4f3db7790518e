package channel

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ottobit/simbridge/pkg/log"
)

// WSTransport carries channel frames over a WebSocket connection, for
// simulators that run out of process.
type WSTransport struct {
	conn      *websocket.Conn
	inbound   chan []byte
	writeLock sync.Mutex
	closeOnce sync.Once
}

// DialWS connects to a simulator WebSocket endpoint and starts the read pump.
func DialWS(url string) (*WSTransport, error) {
	log.Info("Connecting to simulator at %s", url)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to simulator: %v", err)
	}

	t := &WSTransport{
		conn:    conn,
		inbound: make(chan []byte, pipeBufferSize),
	}
	go t.readPump()
	return t, nil
}

func (t *WSTransport) readPump() {
	defer close(t.inbound)
	for {
		_, b, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading simulator frame: %v", err)
			}
			log.Trace("Simulator connection closed")
			return
		}
		t.inbound <- b
	}
}

func (t *WSTransport) Post(b []byte) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write frame: %v", err)
	}
	return nil
}

func (t *WSTransport) Inbound() <-chan []byte {
	return t.inbound
}

func (t *WSTransport) Close() error {
	t.closeOnce.Do(func() {
		if err := t.conn.Close(); err != nil {
			log.Debug("Error closing simulator connection: %v", err)
		}
	})
	return nil
}
