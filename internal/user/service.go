package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Service handles user lifecycle business logic: signup, self-service
// profile updates, and administrative user management.
type Service struct {
	store  Store
	hasher PasswordHasher
}

func NewService(store Store, hasher PasswordHasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
	Role        Role
}

// Signup creates a new user account. Username and email uniqueness are
// checked before hashing; the role defaults to NORMAL_USER when unset.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if in.Username == "" {
		return nil, ErrUsernameRequired
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = RoleNormalUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	// Reject duplicates before paying for the hash. The store's unique
	// constraints catch the race between concurrent signups.
	if _, err := s.store.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.Create(ctx, &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// GetByUsername resolves the profile of the named user.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.store.GetByUsername(ctx, username)
}

// UpdatePassword verifies the current password before re-hashing and
// storing the new one.
func (s *Service) UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) (*User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(currentPassword, existing.PasswordHash) {
		return nil, ErrWrongPassword
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	existing.PasswordHash = passwordHash

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	return updated, nil
}

// DetailsUpdate carries the optional self-service profile fields. Only
// non-nil fields are applied.
type DetailsUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// UpdateDetails applies a partial self-service update to the named user.
// An email change is re-checked for uniqueness against all other records.
func (s *Service) UpdateDetails(ctx context.Context, username string, in DetailsUpdate) (*User, error) {
	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		existing.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		existing.LastName = *in.LastName
	}
	if in.PhoneNumber != nil {
		existing.PhoneNumber = in.PhoneNumber
	}
	if in.Email != nil && *in.Email != existing.Email {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		if err := s.checkEmailFree(ctx, *in.Email, existing.ID); err != nil {
			return nil, err
		}
		existing.Email = *in.Email
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user details: %w", err)
	}

	return updated, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// GetByID resolves a user by primary key.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// AdminUpdate carries the optional fields an administrator may change.
// Only non-nil fields are applied.
type AdminUpdate struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Password    *string
	Role        *Role
}

// UpdateUserAdmin applies a partial administrative update, including role
// and password changes, under the same uniqueness checks as self-update.
func (s *Service) UpdateUserAdmin(ctx context.Context, id uuid.UUID, in AdminUpdate) (*User, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != existing.Username {
		if *in.Username == "" {
			return nil, ErrUsernameRequired
		}
		other, err := s.store.GetByUsername(ctx, *in.Username)
		if err == nil && other.ID != existing.ID {
			return nil, ErrDuplicateUsername
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		existing.Username = *in.Username
	}
	if in.Email != nil && *in.Email != existing.Email {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		if err := s.checkEmailFree(ctx, *in.Email, existing.ID); err != nil {
			return nil, err
		}
		existing.Email = *in.Email
	}
	if in.FirstName != nil {
		existing.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		existing.LastName = *in.LastName
	}
	if in.PhoneNumber != nil {
		existing.PhoneNumber = in.PhoneNumber
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, ErrInvalidRole
		}
		existing.Role = *in.Role
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		passwordHash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.PasswordHash = passwordHash
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updated, nil
}

// DeleteUser removes a user by id. Hard delete, no soft-delete tier.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// checkEmailFree ensures the email is not held by a different live record.
func (s *Service) checkEmailFree(ctx context.Context, email string, selfID uuid.UUID) error {
	other, err := s.store.GetByEmail(ctx, email)
	if err == nil && other.ID != selfID {
		return ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
