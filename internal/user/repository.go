package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/gochapel/identity-service/internal/database"
)

// Repository is the Postgres-backed credential store.
type Repository struct {
	db *bun.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Update writes the full user record back by id
func (r *Repository) Update(ctx context.Context, u *User) (*User, error) {
	dbUser := mapModelToDBUser(u)
	dbUser.UpdatedAt = time.Now()

	result, err := r.db.NewUpdate().
		Model(dbUser).
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// Delete removes a user by id (hard delete)
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username (case-sensitive exact match)
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List retrieves all users ordered by creation time
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		users = append(users, mapDBUserToModel(dbu))
	}

	return users, nil
}

// mapUniqueViolation translates a Postgres unique-constraint violation into
// the matching domain error, or returns nil for unrelated errors. The
// uniqueness check in the service layer is check-then-write, so concurrent
// writers can still hit the constraint.
func mapUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value violates unique constraint") {
		return nil
	}
	if strings.Contains(msg, "username") {
		return ErrDuplicateUsername
	}
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	// A constraint this code does not know about; do not guess which field
	return fmt.Errorf("unique constraint violation: %w", err)
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		FirstName:    dbu.FirstName,
		LastName:     dbu.LastName,
		PhoneNumber:  dbu.PhoneNumber,
		Role:         Role(dbu.Role),
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}

// mapModelToDBUser converts domain model to database model
func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
