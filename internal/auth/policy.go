package auth

import (
	"net/http"
	"strings"

	"github.com/gochapel/identity-service/internal/httputil"
	"github.com/gochapel/identity-service/internal/user"
)

// Decision is the outcome of evaluating the policy for one request.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

type requirementKind int

const (
	requirePublic requirementKind = iota
	requireAuthenticated
	requireRole
)

// Requirement is what a route demands of the request identity.
type Requirement struct {
	kind requirementKind
	role user.Role
}

// Public requires nothing; the route is open to unauthenticated requests.
func Public() Requirement {
	return Requirement{kind: requirePublic}
}

// Authenticated requires any valid attached identity.
func Authenticated() Requirement {
	return Requirement{kind: requireAuthenticated}
}

// RequireRole requires an attached identity carrying the given role.
func RequireRole(role user.Role) Requirement {
	return Requirement{kind: requireRole, role: role}
}

// Rule binds a path pattern to a requirement. A pattern is either an exact
// path or a prefix wildcard ending in "/*".
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Policy is an ordered route->requirement table evaluated first-match.
// Declare specific patterns before broad ones; any route not matched by a
// rule requires authentication. Evaluation is pure and safe under
// unbounded concurrency.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy is the route table for this service: auth endpoints and the
// health probe are public, the admin subtree is ADMIN-only, everything else
// needs a valid identity.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Pattern: "/health", Requirement: Public()},
		Rule{Pattern: "/auth/*", Requirement: Public()},
		Rule{Pattern: "/admin/*", Requirement: RequireRole(user.RoleAdmin)},
		Rule{Pattern: "/*", Requirement: Authenticated()},
	)
}

// Evaluate returns the decision for a request path and the attached
// identity, or nil when the request is unauthenticated.
func (p *Policy) Evaluate(path string, identity *user.Identity) Decision {
	req := Authenticated()
	for _, rule := range p.rules {
		if matchPattern(rule.Pattern, path) {
			req = rule.Requirement
			break
		}
	}

	switch req.kind {
	case requirePublic:
		return Allow
	case requireAuthenticated:
		if identity == nil {
			return DenyUnauthenticated
		}
		return Allow
	case requireRole:
		if identity == nil {
			return DenyUnauthenticated
		}
		if !identity.HasRole(req.role) {
			return DenyForbidden
		}
		return Allow
	default:
		return DenyUnauthenticated
	}
}

// Enforce is the middleware form of the policy, run after the
// authentication gate. Denials map to the uniform 401/403 responses.
func (p *Policy) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var identity *user.Identity
		if id, ok := user.IdentityFromContext(r.Context()); ok {
			identity = &id
		}

		switch p.Evaluate(r.URL.Path, identity) {
		case Allow:
			next.ServeHTTP(w, r)
		case DenyUnauthenticated:
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		case DenyForbidden:
			httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
		}
	})
}

// matchPattern matches an exact path or a "/*" prefix wildcard. "/*"
// matches every path.
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if prefix == "" {
			return true
		}
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
