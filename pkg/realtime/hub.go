package realtime

import (
	"sync"

	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
)

// Registry tracks room membership and fans frames out to sessions. The
// router depends on this interface so tests can observe delivery without
// real connections.
type Registry interface {
	Join(roomID string, c *Client)
	Leave(roomID string, c *Client)
	Remove(c *Client)
	// Broadcast delivers raw to every session in the room. except may be
	// nil; when set that session is skipped.
	Broadcast(roomID string, raw []byte, except *Client)
}

// Hub is the in-memory Registry. All membership state lives behind one
// mutex; fan-out never blocks on a slow client because sessions buffer
// outbound frames and drop the connection when the buffer fills.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
	logger.Debug("room_joined", "room", roomID, "user", c.UserID(), "members", len(members))
}

func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Remove drops the session from every room it joined.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// MessageNotifier returns a chat.Service Notify hook that fans every
// persisted message out to its conversation room as a receive_message
// event, regardless of whether the send arrived over REST or a socket.
func MessageNotifier(reg Registry) func(m models.Message) {
	return func(m models.Message) {
		reg.Broadcast(models.RoomID(m.Sender, m.Receiver), mustFrame(EventReceiveMessage, m), nil)
	}
}

func (h *Hub) Broadcast(roomID string, raw []byte, except *Client) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if c != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.enqueue(raw)
	}
}
