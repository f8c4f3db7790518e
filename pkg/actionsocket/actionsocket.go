package actionsocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 3000
	DefaultProtocol = "ws"

	socketPath     = "/socket.io"
	reconnectDelay = 1500 * time.Millisecond
)

// Options configures the relay endpoint. Zero fields take the defaults.
type Options struct {
	Host     string
	Port     int
	Protocol string
}

func (o Options) url() string {
	host := o.Host
	if host == "" {
		host = DefaultHost
	}
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	protocol := o.Protocol
	if protocol == "" {
		protocol = DefaultProtocol
	}
	return fmt.Sprintf("%s://%s:%d%s", protocol, host, port, socketPath)
}

// OnMessage receives normalized relay payloads. Inbound actions events always
// carry type == "actions"; downstream consumers key off that field.
type OnMessage func(msg map[string]interface{})

// Disposer tears down the connection. It is safe to call once; later calls
// are harmless.
type Disposer func()

type client struct {
	url       string
	roomID    string
	onMessage OnMessage

	stopped  atomic.Bool
	connLock sync.Mutex
	conn     *websocket.Conn
}

// Connect establishes an auto-reconnecting relay connection scoped to roomID
// and joins the room. This channel is best-effort live relay: connection and
// protocol errors are logged and swallowed, and nothing is queued across
// disconnects.
func Connect(roomID string, onMessage OnMessage, opts Options) Disposer {
	c := &client{
		url:       opts.url(),
		roomID:    roomID,
		onMessage: onMessage,
	}
	go c.run()

	var once sync.Once
	return func() {
		once.Do(c.dispose)
	}
}

func (c *client) run() {
	for !c.stopped.Load() {
		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			log.Debug("Relay dial failed: %v", err)
			c.sleep()
			continue
		}

		c.connLock.Lock()
		if c.stopped.Load() {
			c.connLock.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.connLock.Unlock()

		log.Info("Relay connected to %s, joining room %s", c.url, c.roomID)
		if err := c.join(conn); err != nil {
			log.Debug("Relay join failed: %v", err)
			conn.Close()
			c.sleep()
			continue
		}

		c.readLoop(conn)
		conn.Close()
		c.sleep()
	}
}

func (c *client) join(conn *websocket.Conn) error {
	data, err := json.Marshal(&messages.RelayJoinData{ID: c.roomID})
	if err != nil {
		return err
	}
	frame, err := json.Marshal(&messages.RelayFrame{
		Event: messages.RelayEventJoin,
		Data:  data,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *client) readLoop(conn *websocket.Conn) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if !c.stopped.Load() {
				log.Debug("Relay connection closed: %v", err)
			}
			return
		}

		frame := &messages.RelayFrame{}
		if err := json.Unmarshal(b, frame); err != nil {
			log.Debug("Dropping non-JSON relay frame: %v", err)
			continue
		}
		if frame.Event != messages.RelayEventActions {
			continue
		}

		payload := map[string]interface{}{}
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				log.Debug("Dropping malformed actions payload: %v", err)
				continue
			}
		}
		// Normalization is mandatory: consumers key off type.
		payload["type"] = "actions"
		if c.onMessage != nil {
			c.onMessage(payload)
		}
	}
}

func (c *client) sleep() {
	if c.stopped.Load() {
		return
	}
	time.Sleep(reconnectDelay)
}

func (c *client) dispose() {
	c.stopped.Store(true)
	c.connLock.Lock()
	defer c.connLock.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
