package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/auth"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/models"
	"chatmesh/pkg/utils"
)

// RegisterMessages registers the user-facing messaging endpoints. All of
// them act on behalf of the verified user from the signed identity headers.
func RegisterMessages(r *mux.Router, service *chat.Service, blobStore blob.Store, maxUploadMB, pageSize int) {
	svc = service
	media = blobStore
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	maxUploadBytes = int64(maxUploadMB) << 20
	defaultPageSize = pageSize
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}

	r.HandleFunc("/messages/send/text", sendText).Methods(http.MethodPost)
	r.HandleFunc("/messages/send/image", sendMedia(models.TypeImage)).Methods(http.MethodPost)
	r.HandleFunc("/messages/send/voice", sendMedia(models.TypeVoice)).Methods(http.MethodPost)
	r.HandleFunc("/messages/send-asset", sendAsset).Methods(http.MethodPost)

	r.HandleFunc("/messages/chat/{otherUserId}", listChat).Methods(http.MethodGet)
	r.HandleFunc("/messages/unread/count", unreadCount).Methods(http.MethodGet)
	r.HandleFunc("/messages/user/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/messages/user/mutual-followers", listMutualFollowers).Methods(http.MethodGet)

	r.HandleFunc("/messages/{messageId}", deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/messages/{messageId}/read", markRead).Methods(http.MethodPost)
}

func sendText(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		ReceiverID string `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := svc.Send(chat.SendInput{
		Sender:   userID,
		Receiver: body.ReceiverID,
		Type:     models.TypeText,
		Content:  body.Content,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"success": true, "message": m})
}

// sendMedia handles the multipart upload variants. The file arrives in a
// form field named after the variant ("image", "voice"), with "media"
// accepted as a generic alias; receiver_id travels alongside.
func sendMedia(t models.MessageType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		if media == nil {
			writeErr(w, apperr.New(apperr.CodeInternal, "media storage is not configured"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid or oversized upload")
			return
		}
		file, header, err := r.FormFile(string(t))
		if err != nil {
			file, header, err = r.FormFile("media")
		}
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, string(t)+" file is required")
			return
		}
		defer file.Close()

		stored, err := media.Save(header.Filename, file)
		if err != nil {
			writeErr(w, apperr.Upstream("failed to store media", err))
			return
		}
		m, err := svc.Send(chat.SendInput{
			Sender:   userID,
			Receiver: r.FormValue("receiver_id"),
			Type:     t,
			Media:    &stored,
		})
		if err != nil {
			// the message was refused, drop the orphaned blob
			_ = media.Delete(stored.PublicID)
			writeErr(w, err)
			return
		}
		_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"success": true, "message": m})
	}
}

func sendAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		ReceiverID string `json:"receiver_id"`
		AssetID    string `json:"asset_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := svc.Send(chat.SendInput{
		Sender:   userID,
		Receiver: body.ReceiverID,
		Type:     models.TypeAsset,
		AssetID:  body.AssetID,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"success": true, "message": m})
}

func listChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	otherID := mux.Vars(r)["otherUserId"]
	page, pageSize := pageParams(r, defaultPageSize)
	res, err := svc.ListConversation(userID, otherID, page, pageSize)
	if err != nil {
		writeErr(w, err)
		return
	}
	msgs := res.Items
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": msgs,
		"has_more": res.HasMore,
		"page":     page,
	})
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := svc.SoftDelete(mux.Vars(r)["messageId"], userID); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "message deleted"})
}

func markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	m, err := svc.MarkRead(mux.Vars(r)["messageId"], userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": m})
}

func unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	n, err := svc.UnreadCount(userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "count": n})
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r, defaultPageSize)
	res, err := svc.ListConversationSummaries(userID, page, pageSize)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeSummaryPage(w, res, page)
}

func listMutualFollowers(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r, defaultPageSize)
	res, err := svc.ListMutualFollowerSummaries(userID, page, pageSize)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeSummaryPage(w, res, page)
}

func writeSummaryPage(w http.ResponseWriter, res chat.SummaryPage, page int) {
	items := res.Items
	if items == nil {
		items = []models.ConversationSummary{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": items,
		"total":         res.Total,
		"page":          page,
	})
}
