package auth

import "time"

// TokenService defines the interface for identity token issuance and
// verification. Implemented by PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(subject string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
