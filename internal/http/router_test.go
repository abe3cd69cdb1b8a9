package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gochapel/identity-service/internal/auth"
	"github.com/gochapel/identity-service/internal/config"
	"github.com/gochapel/identity-service/internal/logging"
	"github.com/gochapel/identity-service/internal/user"
)

type routerFixture struct {
	router http.Handler
	store  *user.MemoryStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "dev"},
		Auth: config.AuthConfig{
			TokenKey: []byte("0123456789abcdef0123456789abcdef"),
			TokenTTL: time.Hour,
		},
	}

	store := user.NewMemoryStore()
	hasher := auth.NewArgon2Hasher()
	tokens, err := auth.NewPasetoService(cfg.Auth.TokenKey)
	require.NoError(t, err)

	userService := user.NewService(store, hasher)
	authService, err := auth.NewService(store, hasher, tokens, cfg.Auth.TokenTTL)
	require.NoError(t, err)

	router := NewRouter(
		cfg,
		auth.NewHandler(authService, userService),
		user.NewHandler(userService),
		auth.NewMiddleware(tokens, store),
		auth.DefaultPolicy(),
		logging.NewLogger(true),
	)

	return &routerFixture{router: router, store: store}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (f *routerFixture) signup(t *testing.T, username, email, password string) map[string]any {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeBody(t, rec)
}

func (f *routerFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	body := decodeBody(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestSignupLoginProfileFlow(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)

	// Signup returns the sanitized profile with the default role
	profile := f.signup(t, "alice", "a@x.com", "alice-password")
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "NORMAL_USER", profile["role"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "password_hash")

	// Duplicate username fails regardless of email
	rec := f.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username": "alice",
		"email":    "other@x.com",
		"password": "whatever-else",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_username", decodeBody(t, rec)["code"])

	// Login with the right password yields a token that authorizes /user/me
	token := f.login(t, "alice", "alice-password")
	rec = f.do(t, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody(t, rec)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "a@x.com", me["email"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "password_hash")

	// Wrong password and unknown username return the same error class
	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	wrongPassword := decodeBody(t, rec)["code"]

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "nobody", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wrongPassword, decodeBody(t, rec)["code"])
}

func TestUnauthenticatedRequests(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No identity attached: authenticated routes yield a uniform 401
	for _, path := range []string{"/user/me", "/admin/users"} {
		rec := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path=%s", path)
		assert.Equal(t, "unauthenticated", decodeBody(t, rec)["code"], "path=%s", path)
	}

	// Garbage and tampered tokens collapse to the same response
	rec = f.do(t, http.MethodGet, "/user/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decodeBody(t, rec)["code"])
}

func TestTokenForDeletedUser(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	f.signup(t, "alice", "a@x.com", "alice-password")
	token := f.login(t, "alice", "alice-password")

	alice, err := f.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(context.Background(), alice.ID))

	// The token still verifies cryptographically, but the gate re-validates
	// the subject's existence on every request
	rec := f.do(t, http.MethodGet, "/user/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleEnforcement(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	f.signup(t, "alice", "a@x.com", "alice-password")
	aliceToken := f.login(t, "alice", "alice-password")

	// A NORMAL_USER touching the admin subtree is forbidden, not unauthenticated
	rec := f.do(t, http.MethodGet, "/admin/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeBody(t, rec)["code"])
}

func TestAdminLifecycle(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	alice := f.signup(t, "alice", "a@x.com", "alice-password")
	aliceID := alice["id"].(string)

	rec := f.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username": "root",
		"email":    "root@x.com",
		"password": "root-password",
		"role":     "ADMIN",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rootToken := f.login(t, "root", "root-password")

	// List
	rec = f.do(t, http.MethodGet, "/admin/users", rootToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	// Get by id
	rec = f.do(t, http.MethodGet, "/admin/users/"+aliceID, rootToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["username"])

	// Promote alice
	rec = f.do(t, http.MethodPut, "/admin/users/"+aliceID, rootToken, map[string]any{
		"role": "ADMIN",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", decodeBody(t, rec)["role"])

	// Unknown and malformed ids
	rec = f.do(t, http.MethodGet, "/admin/users/6be27789-02b4-4f04-9aa8-b617313b1e21", rootToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/admin/users/not-a-uuid", rootToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete alice; her profile route stops working immediately
	aliceToken := f.login(t, "alice", "alice-password")
	rec = f.do(t, http.MethodDelete, "/admin/users/"+aliceID, rootToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/user/me", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfServiceUpdates(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	f.signup(t, "alice", "a@x.com", "alice-password")
	f.signup(t, "bob", "b@x.com", "bob-password-1")
	token := f.login(t, "alice", "alice-password")

	// Partial detail update
	rec := f.do(t, http.MethodPut, "/user/me/update", token, map[string]any{
		"first_name":   "Alice",
		"phone_number": "+1555000111",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Alice", body["first_name"])
	assert.Equal(t, "a@x.com", body["email"])

	// Email collision with another record
	rec = f.do(t, http.MethodPut, "/user/me/update", token, map[string]any{
		"email": "b@x.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_email", decodeBody(t, rec)["code"])

	// Password change requires the current password
	rec = f.do(t, http.MethodPut, "/user/me/password", token, map[string]any{
		"current_password": "wrong",
		"new_password":     "alice-password-2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPut, "/user/me/password", token, map[string]any{
		"current_password": "alice-password",
		"new_password":     "alice-password-2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Old password no longer works, new one does
	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "alice", "password": "alice-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.login(t, "alice", "alice-password-2")
}
