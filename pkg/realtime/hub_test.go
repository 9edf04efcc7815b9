package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/models"
)

func testClient(userID string) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case raw := <-c.send:
			out = append(out, raw)
		default:
			return out
		}
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := testClient("alice")
	b := testClient("bob")
	room := models.RoomID("alice", "bob")
	hub.Join(room, a)
	hub.Join(room, b)

	hub.Broadcast(room, []byte(`{"event":"receive_message"}`), nil)
	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
}

func TestHubBroadcastExcept(t *testing.T) {
	hub := NewHub()
	a := testClient("alice")
	b := testClient("bob")
	room := models.RoomID("alice", "bob")
	hub.Join(room, a)
	hub.Join(room, b)

	hub.Broadcast(room, []byte(`{"event":"user_typing"}`), a)
	require.Empty(t, drain(a))
	require.Len(t, drain(b), 1)
}

func TestHubRoomIsolation(t *testing.T) {
	hub := NewHub()
	a := testClient("alice")
	c := testClient("carol")
	hub.Join(models.RoomID("alice", "bob"), a)
	hub.Join(models.RoomID("carol", "dave"), c)

	hub.Broadcast(models.RoomID("alice", "bob"), []byte(`x`), nil)
	require.Len(t, drain(a), 1)
	require.Empty(t, drain(c))
}

func TestHubMultiDeviceFanout(t *testing.T) {
	hub := NewHub()
	phone := testClient("alice")
	laptop := testClient("alice")
	room := models.RoomID("alice", "bob")
	hub.Join(room, phone)
	hub.Join(room, laptop)

	hub.Broadcast(room, []byte(`x`), nil)
	require.Len(t, drain(phone), 1)
	require.Len(t, drain(laptop), 1)
}

func TestHubRemoveDropsAllRooms(t *testing.T) {
	hub := NewHub()
	a := testClient("alice")
	r1 := models.RoomID("alice", "bob")
	r2 := models.RoomID("alice", "carol")
	hub.Join(r1, a)
	hub.Join(r2, a)

	hub.Remove(a)
	hub.Broadcast(r1, []byte(`x`), nil)
	hub.Broadcast(r2, []byte(`x`), nil)
	require.Empty(t, drain(a))
}

func TestEnqueueAfterDone(t *testing.T) {
	a := testClient("alice")
	close(a.done)
	// must not panic or block
	a.enqueue([]byte(`x`))
}

func TestFrameEnvelope(t *testing.T) {
	raw := mustFrame(EventUserTyping, userTypingData{UserID: "alice", Typing: true})
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Equal(t, EventUserTyping, f.Event)

	var d userTypingData
	require.NoError(t, json.Unmarshal(f.Data, &d))
	require.Equal(t, "alice", d.UserID)
	require.True(t, d.Typing)
}
