// Package realtime implements the websocket room router. Each two-party
// conversation maps to one room; clients join rooms explicitly and events
// fan out to every session in the room, across devices.
package realtime

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinChat    = "join_chat"
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventMarkAsRead  = "mark_as_read"
)

// Server-to-client event names.
const (
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
	EventMessageRead    = "message_read"
	EventMessageError   = "message_error"
	EventReadError      = "read_error"
)

// Frame is the wire envelope for every event in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func mustFrame(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("{}")
	}
	out, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return []byte(`{"event":"` + event + `"}`)
	}
	return out
}

type joinChatData struct {
	OtherUserID string `json:"otherUserId"`
}

type sendMessageData struct {
	To          string `json:"to"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type typingData struct {
	OtherUserID string `json:"otherUserId"`
}

type markAsReadData struct {
	MessageID string `json:"messageId"`
}

type userTypingData struct {
	UserID string `json:"userId"`
	Typing bool   `json:"typing"`
}

type messageReadData struct {
	MessageID string `json:"messageId"`
	ReadBy    string `json:"readBy"`
}

type errorData struct {
	Error string `json:"error"`
}
