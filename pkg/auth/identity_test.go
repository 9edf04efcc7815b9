package auth_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/auth"
	"chatmesh/pkg/config"
)

func sign(key, userID string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

func setSigningKeys(t *testing.T, keys ...string) {
	t.Helper()
	rc := &config.RuntimeConfig{SigningKeys: map[string]struct{}{}}
	for _, k := range keys {
		rc.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(rc)
	t.Cleanup(func() { config.SetRuntime(nil) })
}

func TestVerifyUserSig(t *testing.T) {
	setSigningKeys(t, "secret-1", "secret-2")

	require.True(t, auth.VerifyUserSig("user-1", sign("secret-1", "user-1")))
	// any configured key verifies
	require.True(t, auth.VerifyUserSig("user-1", sign("secret-2", "user-1")))
	require.False(t, auth.VerifyUserSig("user-1", sign("wrong", "user-1")))
	require.False(t, auth.VerifyUserSig("user-2", sign("secret-1", "user-1")))
	require.False(t, auth.VerifyUserSig("", ""))
}

func identityEcho() (http.Handler, *string) {
	var got string
	h := auth.RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &got
}

func TestRequireSignedUser(t *testing.T) {
	setSigningKeys(t, "secret-1")
	h, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread/count", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Signature", sign("secret-1", "user-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", *got)
}

func TestRequireSignedUserRejectsBadSig(t *testing.T) {
	setSigningKeys(t, "secret-1")
	h, _ := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread/count", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSignedUserMissingHeaders(t *testing.T) {
	setSigningKeys(t, "secret-1")
	h, _ := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread/count", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBackendMayOmitSignature(t *testing.T) {
	setSigningKeys(t, "secret-1")
	h, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
	req.Header.Set("X-Role-Name", "backend")
	req.Header.Set("X-User-ID", "user-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-9", *got)

	// but a present signature must verify even for backend callers
	req = httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
	req.Header.Set("X-Role-Name", "backend")
	req.Header.Set("X-User-ID", "user-9")
	req.Header.Set("X-User-Signature", "deadbeef")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
