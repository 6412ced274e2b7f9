package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member is a library patron. The number of books a member currently holds is
// derived by counting their BORROWED loans, never stored here.
type Member struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	MembershipDate time.Time `json:"membership_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type MemberRepository interface {
	CreateMember(member *Member) error
	GetMember(id uuid.UUID) (*Member, error)
	// GetMemberForUpdate locks the member row for the rest of the surrounding
	// database transaction so that concurrent borrows by the same member
	// cannot both pass the borrowing-limit check.
	GetMemberForUpdate(id uuid.UUID) (*Member, error)
	ListMembers() ([]Member, error)
	UpdateMember(member *Member) error
	DeleteMember(id uuid.UUID) error
}
