// Package chat implements the messaging core: sending the message variants,
// conversation listing, read receipts, soft deletion and the inbox
// aggregations. Handlers and the realtime router both sit on top of it.
package chat

import (
	"strings"
	"time"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
	"chatmesh/pkg/store"
	"chatmesh/pkg/telemetry"
	"chatmesh/pkg/utils"
)

// Service wires the message store, block registry and blob store together.
type Service struct {
	// Blob handles media cleanup on delete; nil disables the cleanup.
	Blob blob.Store
	// HideDeleted removes soft-deleted messages from conversation listings.
	HideDeleted bool
	// MaxContentLen bounds text content; zero means the 4096 default.
	MaxContentLen int
	// Notify, when set, receives every persisted message after display
	// fields are populated. The realtime layer hooks in here so REST and
	// socket sends both reach connected sessions.
	Notify func(m models.Message)
}

// SendInput carries one message-send request. Exactly one variant payload
// is expected: Content for text, Media for image/voice, AssetID for asset.
type SendInput struct {
	Sender   string
	Receiver string
	Type     models.MessageType
	Content  string
	Media    *blob.Stored
	AssetID  string
}

func (s *Service) maxContent() int {
	if s.MaxContentLen > 0 {
		return s.MaxContentLen
	}
	return 4096
}

// validate checks the variant-specific payload requirements at construction
// time rather than scattering absence checks through handlers.
func (s *Service) validate(in SendInput) error {
	if in.Receiver == "" {
		return apperr.InvalidArg("receiver id is required")
	}
	if in.Sender == "" {
		return apperr.InvalidArg("sender id is required")
	}
	if in.Sender == in.Receiver {
		return apperr.InvalidArg("cannot message yourself")
	}
	if !in.Type.Valid() {
		return apperr.InvalidArg("unknown message type")
	}
	switch in.Type {
	case models.TypeText:
		if strings.TrimSpace(in.Content) == "" {
			return apperr.InvalidArg("content is required")
		}
		if len(in.Content) > s.maxContent() {
			return apperr.InvalidArg("content too long")
		}
	case models.TypeImage, models.TypeVoice:
		if in.Media == nil || in.Media.URL == "" {
			return apperr.InvalidArg("media file is required")
		}
	case models.TypeAsset:
		if in.AssetID == "" {
			return apperr.InvalidArg("asset id is required")
		}
	}
	return nil
}

// Send validates the payload, consults the block registry, persists the
// message and returns it with display fields populated.
func (s *Service) Send(in SendInput) (models.Message, error) {
	var m models.Message
	if err := s.validate(in); err != nil {
		return m, err
	}
	if err := social.CheckCommunicationAllowed(in.Sender, in.Receiver); err != nil {
		if apperr.CodeOf(err) == apperr.CodeBlocked {
			telemetry.MessagesBlocked.Inc()
		}
		return m, err
	}

	now := time.Now().UTC().UnixNano()
	m = models.Message{
		ID:          utils.GenMessageID(),
		Sender:      in.Sender,
		Receiver:    in.Receiver,
		MessageType: in.Type,
		CreatedTS:   now,
		UpdatedTS:   now,
	}
	switch in.Type {
	case models.TypeText:
		m.Content = in.Content
	case models.TypeImage:
		m.Content = in.Media.URL
		m.MediaURL = in.Media.URL
		m.MediaPublicID = in.Media.PublicID
	case models.TypeVoice:
		m.Content = "Voice message"
		m.MediaURL = in.Media.URL
		m.MediaPublicID = in.Media.PublicID
	case models.TypeAsset:
		asset, err := store.GetAsset(in.AssetID)
		if err != nil {
			if store.IsNotFound(err) {
				return m, apperr.NotFound("asset not found")
			}
			return m, apperr.Upstream("failed to load asset", err)
		}
		if !asset.AccessibleBy(in.Sender) {
			return m, apperr.Forbidden("you do not have access to this asset")
		}
		m.Content = asset.Name
		m.MediaURL = asset.AssetURL
		m.AssetDetails = asset.Details()
	}

	if err := store.SaveMessage(m); err != nil {
		return m, apperr.Upstream("failed to persist message", err)
	}
	telemetry.MessagesSent.WithLabelValues(string(in.Type)).Inc()
	logger.Info("message_sent", "id", m.ID, "type", string(m.MessageType), "room", models.RoomID(m.Sender, m.Receiver))

	s.populate(&m)
	if s.Notify != nil {
		s.Notify(m)
	}
	return m, nil
}

// populate attaches the display projections of both participants. A
// participant without a stored record is simply left unpopulated.
func (s *Service) populate(m *models.Message) {
	if u, err := store.GetUser(m.Sender); err == nil {
		m.SenderInfo = u.Info()
	}
	if u, err := store.GetUser(m.Receiver); err == nil {
		m.ReceiverInfo = u.Info()
	}
}

// ConversationPage is one page of a two-party conversation in chronological
// order.
type ConversationPage struct {
	Items   []models.Message
	HasMore bool
}

// ListConversation returns the messages exchanged between userID and
// otherID, newest page first but each page in chronological order. Whether
// soft-deleted messages appear is controlled by HideDeleted.
func (s *Service) ListConversation(userID, otherID string, page, pageSize int) (ConversationPage, error) {
	var out ConversationPage
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	ids, err := store.ListConversationIDs(userID, otherID)
	if err != nil {
		return out, apperr.Upstream("failed to list conversation", err)
	}
	msgs := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		m, err := store.GetMessage(id)
		if err != nil {
			if store.IsNotFound(err) {
				continue // purged since indexed
			}
			return out, apperr.Upstream("failed to load message", err)
		}
		if s.HideDeleted && m.IsDeleted {
			continue
		}
		msgs = append(msgs, m)
	}
	// msgs is oldest-first; page 1 is the newest pageSize entries, still
	// presented chronologically.
	skip := (page - 1) * pageSize
	end := len(msgs) - skip
	if end <= 0 {
		return out, nil
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}
	out.Items = msgs[start:end]
	out.HasMore = len(out.Items) == pageSize
	var senderInfo, receiverInfo *models.UserInfo
	if u, err := store.GetUser(userID); err == nil {
		senderInfo = u.Info()
	}
	if u, err := store.GetUser(otherID); err == nil {
		receiverInfo = u.Info()
	}
	for i := range out.Items {
		m := &out.Items[i]
		if m.Sender == userID {
			m.SenderInfo, m.ReceiverInfo = senderInfo, receiverInfo
		} else {
			m.SenderInfo, m.ReceiverInfo = receiverInfo, senderInfo
		}
	}
	return out, nil
}

// MarkRead flags a message read on behalf of its receiver. Marking an
// already-read message succeeds without changing the original read time.
func (s *Service) MarkRead(messageID, requesterID string) (models.Message, error) {
	m, err := store.GetMessage(messageID)
	if err != nil {
		if store.IsNotFound(err) {
			return m, apperr.NotFound("message not found")
		}
		return m, apperr.Upstream("failed to load message", err)
	}
	if m.Receiver != requesterID {
		return m, apperr.Forbidden("not authorized to mark this message as read")
	}
	if m.IsRead {
		return m, nil
	}
	now := time.Now().UTC().UnixNano()
	m.IsRead = true
	m.ReadTS = now
	m.UpdatedTS = now
	if err := store.UpdateMessage(m); err != nil {
		return m, apperr.Upstream("failed to update message", err)
	}
	if err := store.ClearUnread(m.Receiver, m.ID); err != nil {
		logger.Warn("clear_unread_failed", "id", m.ID, "error", err)
	}
	return m, nil
}

// SoftDelete marks a message deleted on behalf of its sender and requests
// best-effort removal of any attached media blob.
func (s *Service) SoftDelete(messageID, requesterID string) error {
	m, err := store.GetMessage(messageID)
	if err != nil {
		if store.IsNotFound(err) {
			return apperr.NotFound("message not found")
		}
		return apperr.Upstream("failed to load message", err)
	}
	if m.Sender != requesterID {
		return apperr.Forbidden("not authorized to delete this message")
	}
	if m.IsDeleted {
		return nil
	}
	now := time.Now().UTC().UnixNano()
	m.IsDeleted = true
	m.DeletedTS = now
	m.UpdatedTS = now
	if err := store.UpdateMessage(m); err != nil {
		return apperr.Upstream("failed to update message", err)
	}
	if m.MediaPublicID != "" && s.Blob != nil {
		if err := s.Blob.Delete(m.MediaPublicID); err != nil {
			// compensating action only; the delete itself already happened
			logger.Warn("media_delete_failed", "id", m.ID, "blob", m.MediaPublicID, "error", err)
		}
	}
	logger.Info("message_deleted", "id", m.ID, "by", requesterID)
	return nil
}

// UnreadCount returns the number of unread messages addressed to userID.
func (s *Service) UnreadCount(userID string) (int, error) {
	n, err := store.UnreadCount(userID)
	if err != nil {
		return 0, apperr.Upstream("failed to count unread messages", err)
	}
	return n, nil
}
