package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gochapel/identity-service/internal/httputil"
	"github.com/gochapel/identity-service/internal/logging"
	"github.com/gochapel/identity-service/internal/user"
)

// Middleware is the authentication gate. It runs once per request, before
// the authorization policy, and attaches a verified identity to the request
// context when the bearer token checks out. It never rejects a credential on
// its own: requests without a usable one continue unauthenticated and the
// policy decides their fate, so clients cannot distinguish a malformed
// token from an expired one. Store failures are the one exception and
// surface as internal errors.
type Middleware struct {
	tokens TokenService
	store  user.Store
}

func NewMiddleware(tokens TokenService, store user.Store) *Middleware {
	return &Middleware{tokens: tokens, store: store}
}

// Authenticate extracts and verifies the bearer token, resolves its subject
// against the credential store, and attaches the resulting identity.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// At most one identity per request
		if _, ok := user.IdentityFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.VerifyToken(token)
		if err != nil {
			// Malformed, tampered, or expired: continue unauthenticated
			next.ServeHTTP(w, r)
			return
		}

		// Stateless tokens cannot be revoked, so re-validate that the
		// subject still exists; this covers users deleted after issuance.
		// Only a missing subject continues unauthenticated: a store failure
		// is an infrastructure problem, not a credential problem.
		subject, err := m.store.GetByUsername(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			logger := logging.GetLoggerFromContext(r.Context())
			logger.Error("failed to resolve token subject", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to authenticate request", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := user.ContextWithIdentity(r.Context(), user.NewIdentity(subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the Authorization header and returns the token part of
// a "Bearer <token>" credential.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
