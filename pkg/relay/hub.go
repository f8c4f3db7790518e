package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ottobit/simbridge/pkg/log"
	"nhooyr.io/websocket"
)

// client is one relay connection after it has joined a room.
type client struct {
	id        string
	roomID    string
	conn      *websocket.Conn
	writeLock sync.Mutex
}

func newClient(roomID string, conn *websocket.Conn) *client {
	return &client{
		id:     uuid.NewString(),
		roomID: roomID,
		conn:   conn,
	}
}

func (c *client) send(ctx context.Context, b []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, b)
}

// Hub tracks room membership. Broadcast fan-out happens in the broadcast
// worker, not inline with the reader.
type Hub struct {
	lock  sync.Mutex
	rooms map[string]map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*client),
	}
}

func (h *Hub) add(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		room = make(map[string]*client)
		h.rooms[c.roomID] = room
	}
	room[c.id] = c
	log.Debug("Client %s joined room %s (%d members)", c.id, c.roomID, len(room))
}

func (h *Hub) remove(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	delete(room, c.id)
	if len(room) == 0 {
		delete(h.rooms, c.roomID)
	}
	log.Debug("Client %s left room %s", c.id, c.roomID)
}

// members returns the clients in a room, excluding the given sender id.
func (h *Hub) members(roomID string, excludeID string) []*client {
	h.lock.Lock()
	defer h.lock.Unlock()
	var members []*client
	for id, c := range h.rooms[roomID] {
		if id == excludeID {
			continue
		}
		members = append(members, c)
	}
	return members
}

// RoomCounts reports member counts per room, for the stats endpoint.
func (h *Hub) RoomCounts() map[string]int {
	h.lock.Lock()
	defer h.lock.Unlock()
	counts := make(map[string]int, len(h.rooms))
	for roomID, room := range h.rooms {
		counts[roomID] = len(room)
	}
	return counts
}
