package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access tier assigned to a user. Exactly one role per user.
type Role string

const (
	RoleNormalUser Role = "NORMAL_USER"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleNormalUser || r == RoleAdmin
}

// Authorities returns the permission set derived from the role.
func (r Role) Authorities() []string {
	switch r {
	case RoleAdmin:
		return []string{"ROLE_ADMIN"}
	default:
		return []string{"ROLE_NORMAL_USER"}
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PhoneNumber  *string   `json:"phone_number,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
