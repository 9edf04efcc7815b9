package chat

import (
	"sort"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
	"chatmesh/pkg/store"
)

// preview renders the one-line conversation preview for a message. Media
// variants show the type tag so clients can render a placeholder.
func preview(m models.Message) string {
	if m.MessageType == models.TypeText {
		return m.Content
	}
	return "[" + string(m.MessageType) + "] " + m.MediaURL
}

// lastOutgoing groups the sender's outgoing messages by receiver, keeping
// the newest non-deleted message and a per-receiver count.
func lastOutgoing(userID string) (map[string]models.Message, map[string]int, error) {
	refs, err := store.ListOutgoing(userID)
	if err != nil {
		return nil, nil, apperr.Upstream("failed to list outgoing messages", err)
	}
	last := make(map[string]models.Message)
	counts := make(map[string]int)
	for _, ref := range refs {
		m, err := store.GetMessage(ref.MsgID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, nil, apperr.Upstream("failed to load message", err)
		}
		if m.IsDeleted {
			continue
		}
		counts[ref.Receiver]++
		if prev, ok := last[ref.Receiver]; !ok || m.CreatedTS > prev.CreatedTS {
			last[ref.Receiver] = m
		}
	}
	return last, counts, nil
}

// SummaryPage is one page of conversation summaries plus the total count
// before pagination.
type SummaryPage struct {
	Items []models.ConversationSummary
	Total int
}

func paginate(items []models.ConversationSummary, page, pageSize int) SummaryPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	out := SummaryPage{Total: len(items)}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return out
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	out.Items = items[start:end]
	return out
}

// ListConversationSummaries returns one summary per distinct receiver the
// user has messaged, most recent first. Receivers who are mutual followers
// are excluded; those conversations surface via the mutual-follower listing
// instead.
func (s *Service) ListConversationSummaries(userID string, page, pageSize int) (SummaryPage, error) {
	last, counts, err := lastOutgoing(userID)
	if err != nil {
		return SummaryPage{}, err
	}
	self, selfErr := store.GetUser(userID)
	if selfErr != nil && !store.IsNotFound(selfErr) {
		return SummaryPage{}, apperr.Upstream("failed to load user", selfErr)
	}

	items := make([]models.ConversationSummary, 0, len(last))
	for receiverID, m := range last {
		if selfErr == nil && social.Mutual(&self, receiverID) {
			continue
		}
		u, err := store.GetUser(receiverID)
		if err != nil {
			if store.IsNotFound(err) {
				continue // receiver record gone, nothing to display
			}
			return SummaryPage{}, apperr.Upstream("failed to load user", err)
		}
		items = append(items, models.ConversationSummary{
			UserID:          u.ID,
			Username:        u.Username,
			ProfileImg:      u.ProfileImg,
			LastMessageDate: m.CreatedTS,
			MessageCount:    counts[receiverID],
			LastMessage:     preview(m),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].LastMessageDate != items[j].LastMessageDate {
			return items[i].LastMessageDate > items[j].LastMessageDate
		}
		return items[i].Username < items[j].Username
	})
	return paginate(items, page, pageSize), nil
}

// ListMutualFollowerSummaries returns one summary per mutual follower,
// annotated with the latest message the user sent them, if any. Pairs with
// no message history sort after those with one; ties break on username.
func (s *Service) ListMutualFollowerSummaries(userID string, page, pageSize int) (SummaryPage, error) {
	self, err := store.GetUser(userID)
	if err != nil {
		if store.IsNotFound(err) {
			return SummaryPage{}, apperr.NotFound("user not found")
		}
		return SummaryPage{}, apperr.Upstream("failed to load user", err)
	}
	last, counts, err := lastOutgoing(userID)
	if err != nil {
		return SummaryPage{}, err
	}

	items := make([]models.ConversationSummary, 0, len(self.Following))
	for _, id := range self.Following {
		if !self.FollowedBy(id) {
			continue
		}
		u, err := store.GetUser(id)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return SummaryPage{}, apperr.Upstream("failed to load user", err)
		}
		sum := models.ConversationSummary{
			UserID:       u.ID,
			Username:     u.Username,
			ProfileImg:   u.ProfileImg,
			MessageCount: counts[id],
		}
		if m, ok := last[id]; ok {
			sum.LastMessageDate = m.CreatedTS
			sum.LastMessage = preview(m)
		}
		items = append(items, sum)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		// never-messaged pairs sort last
		if (a.LastMessageDate == 0) != (b.LastMessageDate == 0) {
			return b.LastMessageDate == 0
		}
		if a.LastMessageDate != b.LastMessageDate {
			return a.LastMessageDate > b.LastMessageDate
		}
		return a.Username < b.Username
	})
	return paginate(items, page, pageSize), nil
}
