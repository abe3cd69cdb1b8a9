package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	t.Parallel()

	id := NewIdentity(&User{Username: "alice", Role: RoleNormalUser})
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, []string{"ROLE_NORMAL_USER"}, id.Authorities)
	assert.True(t, id.HasRole(RoleNormalUser))
	assert.False(t, id.HasRole(RoleAdmin))

	admin := NewIdentity(&User{Username: "root", Role: RoleAdmin})
	assert.Equal(t, []string{"ROLE_ADMIN"}, admin.Authorities)
}

func TestIdentityContextRoundTrip(t *testing.T) {
	t.Parallel()

	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithIdentity(context.Background(), Identity{Username: "alice", Role: RoleNormalUser})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", id.Username)
}

func TestRole(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleNormalUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("SUPERUSER").Valid())
	assert.False(t, Role("").Valid())
}
