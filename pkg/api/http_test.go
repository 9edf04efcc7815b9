package api_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/api"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/config"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
	"chatmesh/pkg/store"
)

const signingKey = "test-signing-key"

var (
	handler  http.Handler
	testSvc  *chat.Service
	testBlob *blob.Local

	notifiedMu sync.Mutex
	notified   []models.Message
)

func buildHandler(pageSize int) http.Handler {
	return api.Handler(api.Deps{
		Chat:        testSvc,
		Blob:        testBlob,
		MaxUploadMB: 4,
		PageSize:    pageSize,
		Version:     "test",
	})
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chatmesh-api-*")
	if err != nil {
		panic(err)
	}
	if err := store.Open(dir); err != nil {
		panic(err)
	}
	mediaDir, err := os.MkdirTemp("", "chatmesh-api-media-*")
	if err != nil {
		panic(err)
	}
	testBlob, err = blob.NewLocal(mediaDir, "/media/")
	if err != nil {
		panic(err)
	}
	config.SetRuntime(&config.RuntimeConfig{
		SigningKeys: map[string]struct{}{signingKey: {}},
	})
	testSvc = &chat.Service{Notify: func(m models.Message) {
		notifiedMu.Lock()
		notified = append(notified, m)
		notifiedMu.Unlock()
	}}
	handler = buildHandler(0)
	code := m.Run()
	config.SetRuntime(nil)
	_ = store.Close()
	_ = os.RemoveAll(dir)
	_ = os.RemoveAll(mediaDir)
	os.Exit(code)
}

func sign(userID string) string {
	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// doAs issues a request the way the gateway would forward it: role header
// stamped, identity headers signed.
func doAs(t *testing.T, userID, role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Role-Name", role)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Signature", sign(userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, store.SaveUser(models.User{ID: id, Username: id}))
}

func TestSendTextMessage(t *testing.T) {
	seedUser(t, "api-alice")
	seedUser(t, "api-bob")

	rec := doAs(t, "api-alice", "frontend", http.MethodPost, "/api/messages/send/text",
		map[string]string{"receiver_id": "api-bob", "content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	out := decode(t, rec)
	require.Equal(t, true, out["success"])
	msg := out["message"].(map[string]any)
	require.Equal(t, "hello", msg["content"])
	require.Equal(t, "api-alice", msg["sender"])

	rec = doAs(t, "api-bob", "frontend", http.MethodGet, "/api/messages/unread/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestSendBlockedByReceiver(t *testing.T) {
	seedUser(t, "api-carol")
	seedUser(t, "api-dave")
	require.NoError(t, social.Block("api-dave", "api-carol"))

	rec := doAs(t, "api-carol", "frontend", http.MethodPost, "/api/messages/send/text",
		map[string]string{"receiver_id": "api-dave", "content": "hi"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, false, decode(t, rec)["success"])
}

func TestMarkReadOnlyReceiver(t *testing.T) {
	seedUser(t, "api-erin")
	seedUser(t, "api-frank")

	rec := doAs(t, "api-erin", "frontend", http.MethodPost, "/api/messages/send/text",
		map[string]string{"receiver_id": "api-frank", "content": "read me"})
	require.Equal(t, http.StatusCreated, rec.Code)
	msgID := decode(t, rec)["message"].(map[string]any)["id"].(string)

	// the sender cannot mark their own message as read
	rec = doAs(t, "api-erin", "frontend", http.MethodPost, "/api/messages/"+msgID+"/read", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, "api-frank", "frontend", http.MethodPost, "/api/messages/"+msgID+"/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode(t, rec)["message"].(map[string]any)
	require.Equal(t, true, msg["is_read"])
}

func TestListChatHistory(t *testing.T) {
	seedUser(t, "api-gina")
	seedUser(t, "api-hank")
	for _, content := range []string{"one", "two", "three"} {
		rec := doAs(t, "api-gina", "frontend", http.MethodPost, "/api/messages/send/text",
			map[string]string{"receiver_id": "api-hank", "content": content})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doAs(t, "api-hank", "frontend", http.MethodGet, "/api/messages/chat/api-gina", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 3)
	require.Equal(t, "one", msgs[0].(map[string]any)["content"])
	require.Equal(t, "three", msgs[2].(map[string]any)["content"])
	require.Equal(t, false, out["has_more"])
}

func TestConversationsEnvelope(t *testing.T) {
	seedUser(t, "api-iris")
	rec := doAs(t, "api-iris", "frontend", http.MethodGet, "/api/messages/user/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	require.Equal(t, true, out["success"])
	// empty result is an empty list, not null
	require.NotNil(t, out["conversations"])
	require.Len(t, out["conversations"].([]any), 0)
}

func TestIdentityRequired(t *testing.T) {
	rec := doAs(t, "", "frontend", http.MethodGet, "/api/messages/unread/count", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread/count", nil)
	req.Header.Set("X-Role-Name", "frontend")
	req.Header.Set("X-User-ID", "api-alice")
	req.Header.Set("X-User-Signature", "bogus")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestAdminRoleGate(t *testing.T) {
	rec := doAs(t, "api-alice", "frontend", http.MethodGet, "/api/admin/messages", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, "api-alice", "admin", http.MethodGet, "/api/admin/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["success"])
}

func TestUserProvisioningRoleGate(t *testing.T) {
	body := map[string]string{"username": "newbie"}
	rec := doAs(t, "api-alice", "frontend", http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, "api-alice", "backend", http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	u := decode(t, rec)["user"].(map[string]any)
	require.Equal(t, "newbie", u["username"])
	require.NotEmpty(t, u["id"])
}

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestUnknownRouteJSON404(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, false, decode(t, rec)["success"])
}

func TestMutualFollowersRoute(t *testing.T) {
	seedUser(t, "api-jane")
	rec := doAs(t, "api-jane", "frontend", http.MethodGet, "/api/messages/user/mutual-followers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	require.Equal(t, true, out["success"])
	require.NotNil(t, out["conversations"])
}

func uploadMedia(t *testing.T, userID, path, field, receiver string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("receiver_id", receiver))
	fw, err := mw.CreateFormFile(field, "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pngbytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Role-Name", "frontend")
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Signature", sign(userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestImageUploadFieldNames(t *testing.T) {
	seedUser(t, "api-kate")
	seedUser(t, "api-liam")

	// the variant-named field
	rec := uploadMedia(t, "api-kate", "/api/messages/send/image", "image", "api-liam")
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode(t, rec)["message"].(map[string]any)
	require.Equal(t, "image", msg["message_type"])
	require.Contains(t, msg["media_url"], "/media/")

	// the generic alias still works
	rec = uploadMedia(t, "api-kate", "/api/messages/send/image", "media", "api-liam")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = uploadMedia(t, "api-kate", "/api/messages/send/image", "attachment", "api-liam")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestSendReachesNotifier(t *testing.T) {
	seedUser(t, "api-mona")
	seedUser(t, "api-nick")

	rec := doAs(t, "api-mona", "frontend", http.MethodPost, "/api/messages/send/text",
		map[string]string{"receiver_id": "api-nick", "content": "realtime too"})
	require.Equal(t, http.StatusCreated, rec.Code)

	notifiedMu.Lock()
	defer notifiedMu.Unlock()
	var found bool
	for _, m := range notified {
		if m.Receiver == "api-nick" && m.Content == "realtime too" {
			found = true
		}
	}
	require.True(t, found)
}

func TestConfiguredPageSize(t *testing.T) {
	paged := buildHandler(2)
	defer buildHandler(0) // restore the default for later tests

	seedUser(t, "api-olga")
	seedUser(t, "api-pete")
	for _, content := range []string{"one", "two", "three"} {
		rec := doAs(t, "api-olga", "frontend", http.MethodPost, "/api/messages/send/text",
			map[string]string{"receiver_id": "api-pete", "content": content})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/messages/chat/api-olga", nil)
	req.Header.Set("X-Role-Name", "frontend")
	req.Header.Set("X-User-ID", "api-pete")
	req.Header.Set("X-User-Signature", sign("api-pete"))
	rec := httptest.NewRecorder()
	paged.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	require.Len(t, out["messages"].([]any), 2)
	require.Equal(t, true, out["has_more"])
}
