package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gochapel/identity-service/internal/user"
)

// ErrInvalidCredentials unifies "unknown username" and "wrong password" so
// the error surface cannot be used for username enumeration.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Service authenticates username/password pairs against the credential
// store and issues identity tokens on success.
type Service struct {
	store    user.Store
	hasher   user.PasswordHasher
	tokens   TokenService
	tokenTTL time.Duration

	// dummyHash is verified against on the unknown-username path so both
	// failure causes pay for one argon2id computation.
	dummyHash string
}

func NewService(store user.Store, hasher user.PasswordHasher, tokens TokenService, tokenTTL time.Duration) (*Service, error) {
	dummyHash, err := hasher.Hash("timing-equalization-placeholder")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		dummyHash: dummyHash,
	}, nil
}

// Login verifies the credentials and returns the stored user together with
// a freshly issued token. Both failure causes map to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Burn the hash-verify cost anyway
			s.hasher.Verify(password, s.dummyHash)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.Username, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existing, token, nil
}
