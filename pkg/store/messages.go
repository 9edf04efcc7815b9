package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
)

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// Message keys:
//
//	msg:<id>                                  canonical record (rewritten on flag updates)
//	conv:<roomID>:<ts20>-<seq6>               conversation index -> message id
//	out:<sender>:<receiver>:<ts20>-<seq6>     outgoing index -> message id
//	unread:<receiver>:<id>                    unread marker (removed on read)
func msgKey(id string) []byte { return []byte("msg:" + id) }

func convKey(roomID string, ts int64, s uint64) []byte {
	return []byte(fmt.Sprintf("conv:%s:%020d-%06d", roomID, ts, s))
}

func outKey(sender, receiver string, ts int64, s uint64) []byte {
	return []byte(fmt.Sprintf("out:%s:%s:%020d-%06d", sender, receiver, ts, s))
}

func unreadKey(receiver, id string) []byte {
	return []byte("unread:" + receiver + ":" + id)
}

// SaveMessage persists a new message and its index entries. The canonical
// record lives under msg:<id>; the conversation and outgoing indexes hold
// only the id so flag updates never have to rewrite them.
func SaveMessage(m models.Message) error {
	if db == nil {
		return errNotOpen()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := setRaw(msgKey(m.ID), data); err != nil {
		logger.Error("save_message_failed", "id", m.ID, "error", err)
		return err
	}
	s := atomic.AddUint64(&seq, 1)
	room := models.RoomID(m.Sender, m.Receiver)
	if err := setRaw(convKey(room, m.CreatedTS, s), []byte(m.ID)); err != nil {
		logger.Error("save_message_index_failed", "room", room, "error", err)
		return err
	}
	if err := setRaw(outKey(m.Sender, m.Receiver, m.CreatedTS, s), []byte(m.ID)); err != nil {
		logger.Error("save_message_index_failed", "sender", m.Sender, "error", err)
		return err
	}
	if !m.IsRead {
		if err := setRaw(unreadKey(m.Receiver, m.ID), nil); err != nil {
			return err
		}
	}
	logger.Debug("message_saved", "id", m.ID, "room", room)
	return nil
}

// GetMessage returns the canonical record for a message id.
func GetMessage(id string) (models.Message, error) {
	var m models.Message
	v, err := getRaw(msgKey(id))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(v, &m); err != nil {
		return m, fmt.Errorf("invalid stored message %s: %w", id, err)
	}
	return m, nil
}

// UpdateMessage rewrites the canonical record. Index entries reference the
// id only, so they stay untouched.
func UpdateMessage(m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return setRaw(msgKey(m.ID), data)
}

// ClearUnread drops the unread marker for (receiver, id). Missing markers
// are fine: marking a read message read again is a no-op.
func ClearUnread(receiver, id string) error {
	err := deleteRaw(unreadKey(receiver, id))
	if err != nil && IsNotFound(err) {
		return nil
	}
	return err
}

// UnreadCount returns the number of unread messages addressed to receiver.
func UnreadCount(receiver string) (int, error) {
	return countPrefix([]byte("unread:" + receiver + ":"))
}

// ListConversationIDs returns the ids of every message exchanged between
// the two users, oldest first.
func ListConversationIDs(a, b string) ([]string, error) {
	prefix := []byte("conv:" + models.RoomID(a, b) + ":")
	var out []string
	err := scanPrefix(prefix, func(_, v []byte) bool {
		out = append(out, string(v))
		return true
	})
	return out, err
}

// OutgoingRef is one entry of a user's outgoing index, oldest first.
type OutgoingRef struct {
	Receiver string
	MsgID    string
}

// ListOutgoing returns every (receiver, message id) pair the user has sent,
// in insertion order.
func ListOutgoing(sender string) ([]OutgoingRef, error) {
	prefix := []byte("out:" + sender + ":")
	var out []OutgoingRef
	err := scanPrefix(prefix, func(k, v []byte) bool {
		rest := strings.TrimPrefix(string(k), string(prefix))
		// rest is <receiver>:<ts20>-<seq6>
		if i := strings.LastIndex(rest, ":"); i > 0 {
			out = append(out, OutgoingRef{Receiver: rest[:i], MsgID: string(v)})
		}
		return true
	})
	return out, err
}

// ListMessageIDs returns every canonical message id in the store. Used by
// the admin listing and the retention sweep.
func ListMessageIDs() ([]string, error) {
	prefix := []byte("msg:")
	var out []string
	err := scanPrefix(prefix, func(k, _ []byte) bool {
		out = append(out, strings.TrimPrefix(string(k), "msg:"))
		return true
	})
	return out, err
}

// PurgeMessages hard-deletes the given message ids along with their index
// entries. Only the retention sweep calls this; the messaging core itself
// never removes records.
func PurgeMessages(ids map[string]struct{}) (int, error) {
	if db == nil {
		return 0, errNotOpen()
	}
	if len(ids) == 0 {
		return 0, nil
	}
	// drop index rows whose value is a purged id
	for _, prefix := range []string{"conv:", "out:"} {
		var stale [][]byte
		if err := scanPrefix([]byte(prefix), func(k, v []byte) bool {
			if _, ok := ids[string(v)]; ok {
				stale = append(stale, k)
			}
			return true
		}); err != nil {
			return 0, err
		}
		for _, k := range stale {
			if err := deleteRaw(k); err != nil {
				return 0, err
			}
		}
	}
	purged := 0
	for id := range ids {
		m, err := GetMessage(id)
		if err == nil {
			_ = ClearUnread(m.Receiver, id)
		}
		if err := deleteRaw(msgKey(id)); err != nil && !IsNotFound(err) {
			return purged, err
		}
		purged++
	}
	logger.Info("messages_purged", "count", purged)
	return purged, nil
}
