package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role determines which operations a user account may invoke. Authorization
// is enforced by HTTP middleware at the boundary; the services below it never
// look at the caller's role.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleStaff     Role = "STAFF"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleLibrarian || r == RoleStaff
}

// User is a staff account that operates the system, distinct from Member
// (a patron who borrows books).
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserRepository interface {
	CreateUser(user *User) error
	GetUser(id uuid.UUID) (*User, error)
	GetUserByUsername(username string) (*User, error)
}
