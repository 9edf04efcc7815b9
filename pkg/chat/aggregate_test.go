package chat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
)

func TestConversationSummariesExcludeMutualFollowers(t *testing.T) {
	svc := &chat.Service{}
	saveUsers(t, "cs-a", "cs-b", "cs-c")

	// cs-a and cs-b follow each other; cs-c is a stranger
	require.NoError(t, social.Follow("cs-a", "cs-b"))
	require.NoError(t, social.Follow("cs-b", "cs-a"))

	sendText(t, svc, "cs-a", "cs-b", "to the mutual")
	sendText(t, svc, "cs-a", "cs-c", "first")
	last := sendText(t, svc, "cs-a", "cs-c", "second")

	page, err := svc.ListConversationSummaries("cs-a", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)

	sum := page.Items[0]
	require.Equal(t, "cs-c", sum.UserID)
	require.Equal(t, "name-cs-c", sum.Username)
	require.Equal(t, 2, sum.MessageCount)
	require.Equal(t, last.CreatedTS, sum.LastMessageDate)
	require.Equal(t, "second", sum.LastMessage)
}

func TestConversationSummariesMediaPreviewAndOrder(t *testing.T) {
	svc := &chat.Service{}
	saveUsers(t, "cp-a", "cp-b", "cp-c")

	sendText(t, svc, "cp-a", "cp-b", "older")
	_, err := svc.Send(chat.SendInput{
		Sender: "cp-a", Receiver: "cp-c", Type: models.TypeImage,
		Media: &blob.Stored{URL: "/media/pic.png", PublicID: "pic.png"},
	})
	require.NoError(t, err)

	page, err := svc.ListConversationSummaries("cp-a", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	// most recent conversation first
	require.Equal(t, "cp-c", page.Items[0].UserID)
	require.Equal(t, "[image] /media/pic.png", page.Items[0].LastMessage)
	require.Equal(t, "cp-b", page.Items[1].UserID)
}

func TestConversationSummariesSkipDeleted(t *testing.T) {
	svc := &chat.Service{}
	saveUsers(t, "cd-a", "cd-b")

	m := sendText(t, svc, "cd-a", "cd-b", "only one")
	require.NoError(t, svc.SoftDelete(m.ID, "cd-a"))

	page, err := svc.ListConversationSummaries("cd-a", 1, 10)
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestMutualFollowerSummariesOrdering(t *testing.T) {
	svc := &chat.Service{}
	saveUsers(t, "mf-a", "mf-b", "mf-c", "mf-d")

	// all three are mutual followers of mf-a
	for _, id := range []string{"mf-b", "mf-c", "mf-d"} {
		require.NoError(t, social.Follow("mf-a", id))
		require.NoError(t, social.Follow(id, "mf-a"))
	}
	// messaged mf-c, then mf-b; never messaged mf-d
	sendText(t, svc, "mf-a", "mf-c", "first")
	sendText(t, svc, "mf-a", "mf-b", "second")

	page, err := svc.ListMutualFollowerSummaries("mf-a", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)

	require.Equal(t, "mf-b", page.Items[0].UserID)
	require.Equal(t, "second", page.Items[0].LastMessage)
	require.Equal(t, "mf-c", page.Items[1].UserID)
	// never-messaged mutuals sort last with no message metadata
	require.Equal(t, "mf-d", page.Items[2].UserID)
	require.Zero(t, page.Items[2].LastMessageDate)
	require.Empty(t, page.Items[2].LastMessage)
}

func TestMutualFollowerSummariesUnknownUser(t *testing.T) {
	svc := &chat.Service{}
	_, err := svc.ListMutualFollowerSummaries("mf-ghost", 1, 10)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestSummaryPagination(t *testing.T) {
	svc := &chat.Service{}
	saveUsers(t, "sp-a", "sp-1", "sp-2", "sp-3")
	sendText(t, svc, "sp-a", "sp-1", "one")
	sendText(t, svc, "sp-a", "sp-2", "two")
	sendText(t, svc, "sp-a", "sp-3", "three")

	page, err := svc.ListConversationSummaries("sp-a", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)

	page, err = svc.ListConversationSummaries("sp-a", 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}
