package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
	"chatmesh/pkg/store"
	"chatmesh/pkg/utils"
)

// RegisterAdmin registers the moderation endpoints. Admin keys only.
func RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/admin/messages", adminListMessages).Methods(http.MethodGet)
	r.HandleFunc("/admin/messages/{id}", adminDeleteMessage).Methods(http.MethodDelete)
}

// adminListMessages scans the canonical records with optional filters:
// sender, receiver, type, q (content substring, case-insensitive) and
// deleted=true to show only soft-deleted messages. Newest first.
func adminListMessages(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "admin") {
		return
	}
	q := r.URL.Query()
	sender := q.Get("sender")
	receiver := q.Get("receiver")
	msgType := q.Get("type")
	needle := strings.ToLower(q.Get("q"))
	deletedOnly := q.Get("deleted") == "true"

	ids, err := store.ListMessageIDs()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		m, err := store.GetMessage(id)
		if err != nil {
			continue
		}
		if sender != "" && m.Sender != sender {
			continue
		}
		if receiver != "" && m.Receiver != receiver {
			continue
		}
		if msgType != "" && string(m.MessageType) != msgType {
			continue
		}
		if deletedOnly && !m.IsDeleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(m.Content), needle) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedTS > out[j].CreatedTS })

	page, pageSize := pageParams(r, 50)
	total := len(out)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": out[start:end],
		"total":    total,
		"page":     page,
	})
}

// adminDeleteMessage soft-deletes regardless of sender; moderation acts on
// anyone's messages. The record stays for the retention sweep to purge.
func adminDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "admin") {
		return
	}
	id := mux.Vars(r)["id"]
	m, err := store.GetMessage(id)
	if err != nil {
		if store.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "message not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "failed to load message")
		return
	}
	if !m.IsDeleted {
		now := time.Now().UTC().UnixNano()
		m.IsDeleted = true
		m.DeletedTS = now
		m.UpdatedTS = now
		if err := store.UpdateMessage(m); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "failed to update message")
			return
		}
	}
	logger.Info("admin_message_deleted", "id", id)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "message deleted"})
}
