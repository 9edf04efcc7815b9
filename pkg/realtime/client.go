package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
	"chatmesh/pkg/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxFrameSize bounds inbound frames; text content is capped well below
	// this by the chat service.
	maxFrameSize = 64 << 10
	sendBuffer   = 64
)

// Client is one websocket session for a verified user. A user may hold
// several concurrent sessions; each is routed independently.
type Client struct {
	router *Router
	conn   *websocket.Conn
	userID string
	send   chan []byte
	// done is closed by the read pump exactly once; the write pump and
	// enqueue use it to stop, so the send channel is never closed.
	done chan struct{}
}

func (c *Client) UserID() string { return c.userID }

// enqueue hands a frame to the write pump without blocking. A session that
// cannot drain its buffer is dropped rather than stalling the room.
func (c *Client) enqueue(raw []byte) {
	select {
	case <-c.done:
	case c.send <- raw:
	default:
		logger.Warn("ws_slow_client_dropped", "user", c.userID)
		c.conn.Close()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.router.hub.Remove(c)
		close(c.done)
		c.conn.Close()
		telemetry.WSSessions.Dec()
		logger.Info("ws_disconnected", "user", c.userID)
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws_read_error", "user", c.userID, "error", err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.enqueue(mustFrame(EventMessageError, errorData{Error: "malformed frame"}))
			continue
		}
		c.dispatch(f)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(f Frame) {
	telemetry.WSEvents.WithLabelValues(f.Event).Inc()
	switch f.Event {
	case EventJoinChat:
		var d joinChatData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.OtherUserID == "" {
			c.enqueue(mustFrame(EventMessageError, errorData{Error: "otherUserId is required"}))
			return
		}
		c.router.hub.Join(models.RoomID(c.userID, d.OtherUserID), c)

	case EventSendMessage:
		var d sendMessageData
		if err := json.Unmarshal(f.Data, &d); err != nil {
			c.enqueue(mustFrame(EventMessageError, errorData{Error: "malformed frame"}))
			return
		}
		c.sendMessage(d)

	case EventTypingStart, EventTypingStop:
		var d typingData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.OtherUserID == "" {
			return
		}
		room := models.RoomID(c.userID, d.OtherUserID)
		out := mustFrame(EventUserTyping, userTypingData{UserID: c.userID, Typing: f.Event == EventTypingStart})
		c.router.hub.Broadcast(room, out, c)

	case EventMarkAsRead:
		var d markAsReadData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.MessageID == "" {
			c.enqueue(mustFrame(EventReadError, errorData{Error: "messageId is required"}))
			return
		}
		c.markAsRead(d.MessageID)

	default:
		c.enqueue(mustFrame(EventMessageError, errorData{Error: "unknown event: " + f.Event}))
	}
}

// sendMessage persists a realtime message through the same path the REST
// handler uses. Fanout to the room happens via the chat service's Notify
// hook, so REST- and socket-originated sends broadcast identically.
func (c *Client) sendMessage(d sendMessageData) {
	t := models.MessageType(d.MessageType)
	if d.MessageType == "" {
		t = models.TypeText
	}
	_, err := c.router.chat.Send(chat.SendInput{
		Sender:   c.userID,
		Receiver: d.To,
		Type:     t,
		Content:  d.Content,
	})
	if err != nil {
		c.enqueue(mustFrame(EventMessageError, errorData{Error: apperr.MessageOf(err)}))
	}
}

// markAsRead requires the session user to be the message receiver; the chat
// service enforces that. The confirmation goes to the calling session,
// which need not have joined the room; the room gets the receipt too so
// the sender's sessions see it.
func (c *Client) markAsRead(messageID string) {
	m, err := c.router.chat.MarkRead(messageID, c.userID)
	if err != nil {
		c.enqueue(mustFrame(EventReadError, errorData{Error: apperr.MessageOf(err)}))
		return
	}
	out := mustFrame(EventMessageRead, messageReadData{MessageID: m.ID, ReadBy: c.userID})
	c.enqueue(out)
	c.router.hub.Broadcast(models.RoomID(m.Sender, m.Receiver), out, c)
}
