package social_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
	"chatmesh/pkg/store"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chatmesh-social-*")
	if err != nil {
		panic(err)
	}
	if err := store.Open(dir); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = store.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func saveUsers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.SaveUser(models.User{ID: id, Username: "user-" + id}))
	}
}

func TestBlockForbidsBothDirections(t *testing.T) {
	saveUsers(t, "b-a", "b-b")
	require.NoError(t, social.Block("b-a", "b-b"))

	err := social.CheckCommunicationAllowed("b-a", "b-b")
	require.Equal(t, apperr.CodeBlocked, apperr.CodeOf(err))

	// the blocked party cannot message back either
	err = social.CheckCommunicationAllowed("b-b", "b-a")
	require.Equal(t, apperr.CodeBlocked, apperr.CodeOf(err))

	require.NoError(t, social.Unblock("b-a", "b-b"))
	require.NoError(t, social.CheckCommunicationAllowed("b-a", "b-b"))
}

func TestBlockEdgeCases(t *testing.T) {
	saveUsers(t, "be-a", "be-b")
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(social.Block("be-a", "be-a")))
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(social.Block("be-a", "be-missing")))

	require.NoError(t, social.Block("be-a", "be-b"))
	require.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(social.Block("be-a", "be-b")))

	require.NoError(t, social.Unblock("be-a", "be-b"))
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(social.Unblock("be-a", "be-b")))
}

func TestCheckCommunicationToleratesMissingSender(t *testing.T) {
	saveUsers(t, "ms-r")
	// sender without a stored record has an empty block set
	require.NoError(t, social.CheckCommunicationAllowed("ms-ghost", "ms-r"))

	// missing receiver is an error
	err := social.CheckCommunicationAllowed("ms-r", "ms-ghost")
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestFollowMaintainsBothEdges(t *testing.T) {
	saveUsers(t, "f-a", "f-b")
	require.NoError(t, social.Follow("f-a", "f-b"))

	a, err := store.GetUser("f-a")
	require.NoError(t, err)
	b, err := store.GetUser("f-b")
	require.NoError(t, err)
	require.True(t, a.Follows("f-b"))
	require.True(t, b.FollowedBy("f-a"))
	require.False(t, social.Mutual(&a, "f-b"))

	require.NoError(t, social.Follow("f-b", "f-a"))
	a, err = store.GetUser("f-a")
	require.NoError(t, err)
	require.True(t, social.Mutual(&a, "f-b"))

	require.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(social.Follow("f-a", "f-b")))

	require.NoError(t, social.Unfollow("f-a", "f-b"))
	a, err = store.GetUser("f-a")
	require.NoError(t, err)
	b, err = store.GetUser("f-b")
	require.NoError(t, err)
	require.False(t, a.Follows("f-b"))
	require.False(t, b.FollowedBy("f-a"))

	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(social.Unfollow("f-a", "f-b")))
}

func TestListBlockedPagination(t *testing.T) {
	saveUsers(t, "lb-a", "lb-1", "lb-2", "lb-3")
	require.NoError(t, social.Block("lb-a", "lb-1"))
	require.NoError(t, social.Block("lb-a", "lb-2"))
	require.NoError(t, social.Block("lb-a", "lb-3"))

	page, err := social.ListBlocked("lb-a", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Users, 2)

	page, err = social.ListBlocked("lb-a", 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)

	page, err = social.ListBlocked("lb-a", 3, 2)
	require.NoError(t, err)
	require.Empty(t, page.Users)
}
