package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

var (
	ErrTokenMalformed = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
)

// TokenClaims represents the claims stored in an identity token
type TokenClaims struct {
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// PasetoService issues and verifies identity tokens.
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305). The only
// state is the immutable signing key, so it is safe for concurrent use.
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
	}, nil
}

// CreateToken generates a new PASETO v4.local token asserting the subject
// for the given duration
func (s *PasetoService) CreateToken(subject string, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetSubject(subject)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken validates a PASETO v4.local token and returns the claims.
// Structurally broken input is rejected before any decryption is attempted.
func (s *PasetoService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	if !isWellFormed(tokenStr) {
		return nil, ErrTokenMalformed
	}

	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// isWellFormed checks the v4.local wire shape: header, payload, optional footer.
func isWellFormed(tokenStr string) bool {
	if !strings.HasPrefix(tokenStr, "v4.local.") {
		return false
	}
	rest := strings.TrimPrefix(tokenStr, "v4.local.")
	if rest == "" {
		return false
	}
	return strings.Count(rest, ".") <= 1
}
