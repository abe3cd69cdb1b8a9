package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gochapel/identity-service/internal/user"
)

func normalIdentity() *user.Identity {
	return &user.Identity{Username: "alice", Role: user.RoleNormalUser, Authorities: user.RoleNormalUser.Authorities()}
}

func adminIdentity() *user.Identity {
	return &user.Identity{Username: "root", Role: user.RoleAdmin, Authorities: user.RoleAdmin.Authorities()}
}

func TestPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()

	tests := []struct {
		name     string
		path     string
		identity *user.Identity
		want     Decision
	}{
		{"health is public", "/health", nil, Allow},
		{"signup is public", "/auth/signup", nil, Allow},
		{"login is public even when authenticated", "/auth/login", normalIdentity(), Allow},
		{"profile requires identity", "/user/me", nil, DenyUnauthenticated},
		{"profile allows any identity", "/user/me", normalIdentity(), Allow},
		{"admin requires identity", "/admin/users", nil, DenyUnauthenticated},
		{"admin denies normal user", "/admin/users", normalIdentity(), DenyForbidden},
		{"admin subtree denies normal user", "/admin/users/42", normalIdentity(), DenyForbidden},
		{"admin allows admin", "/admin/users", adminIdentity(), Allow},
		{"unlisted route requires identity", "/something/else", nil, DenyUnauthenticated},
		{"unlisted route allows any identity", "/something/else", adminIdentity(), Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, policy.Evaluate(tt.path, tt.identity))
		})
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// The specific rule is declared before the subtree catch-all
	policy := NewPolicy(
		Rule{Pattern: "/admin/health", Requirement: Public()},
		Rule{Pattern: "/admin/*", Requirement: RequireRole(user.RoleAdmin)},
	)

	assert.Equal(t, Allow, policy.Evaluate("/admin/health", nil))
	assert.Equal(t, DenyForbidden, policy.Evaluate("/admin/users", normalIdentity()))
}

func TestPolicy_NoMatchedRuleRequiresAuthentication(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(
		Rule{Pattern: "/auth/*", Requirement: Public()},
	)

	assert.Equal(t, DenyUnauthenticated, policy.Evaluate("/user/me", nil))
	assert.Equal(t, Allow, policy.Evaluate("/user/me", normalIdentity()))
}

func TestPolicy_Enforce(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("unauthenticated yields 401", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		policy.Enforce(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role yields 403", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req = req.WithContext(user.ContextWithIdentity(req.Context(), *normalIdentity()))
		policy.Enforce(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("allowed request reaches handler", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		req = req.WithContext(user.ContextWithIdentity(req.Context(), *normalIdentity()))
		policy.Enforce(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
