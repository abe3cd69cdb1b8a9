package user

import "context"

// Identity is the verified identity attached to a request by the
// authentication gate. It lives only for the duration of one request.
type Identity struct {
	Username    string
	Role        Role
	Authorities []string
}

// NewIdentity derives the request identity from a stored user record.
func NewIdentity(u *User) Identity {
	return Identity{
		Username:    u.Username,
		Role:        u.Role,
		Authorities: u.Role.Authorities(),
	}
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role Role) bool {
	return id.Role == role
}

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// IdentityContextKey is the key for the verified identity in the request context
	IdentityContextKey ContextKey = "identity"
)

// ContextWithIdentity returns a copy of ctx with the identity attached.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// IdentityFromContext extracts the verified identity from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}
