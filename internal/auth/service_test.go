package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gochapel/identity-service/internal/user"
)

func newTestAuthService(t *testing.T) (*Service, *user.MemoryStore) {
	t.Helper()

	store := user.NewMemoryStore()
	hasher := NewArgon2Hasher()
	tokens := newTestTokenService(t)

	svc, err := NewService(store, hasher, tokens, time.Hour)
	require.NoError(t, err)

	hash, err := hasher.Hash("alice-password")
	require.NoError(t, err)
	_, err = store.Create(context.Background(), &user.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         user.RoleNormalUser,
	})
	require.NoError(t, err)

	return svc, store
}

func TestService_Login_Success(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	loggedIn, token, err := svc.Login(context.Background(), "alice", "alice-password")
	require.NoError(t, err)
	assert.Equal(t, "alice", loggedIn.Username)
	assert.NotEmpty(t, token)

	// The issued token asserts the username as subject
	claims, err := svc.tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestService_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	_, _, err := svc.Login(context.Background(), "alice", "not-the-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_UnknownUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	// Unknown user and wrong password are indistinguishable
	_, _, err := svc.Login(context.Background(), "nobody", "alice-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_EmptyCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	_, _, err := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
