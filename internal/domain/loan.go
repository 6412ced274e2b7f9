package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a loan. A loan starts as BORROWED and
// transitions exactly once to RETURNED or LATE when the book comes back.
type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "BORROWED"
	LoanStatusReturned LoanStatus = "RETURNED"
	LoanStatusLate     LoanStatus = "LATE"
)

// IsTerminal reports whether no further status transitions are allowed.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusReturned || s == LoanStatusLate
}

// Loan is a borrowing transaction: one member holding one copy of one book.
// ReturnDate is nil until the book is returned.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     LoanStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type LoanRepository interface {
	CreateLoan(loan *Loan) error
	GetLoan(id uuid.UUID) (*Loan, error)
	// GetLoanForUpdate locks the loan row for the rest of the surrounding
	// database transaction, serializing concurrent returns and updates.
	GetLoanForUpdate(id uuid.UUID) (*Loan, error)
	UpdateLoan(loan *Loan) error
	DeleteLoan(id uuid.UUID) error
	ListLoans() ([]Loan, error)
	CountLoansByBookAndStatus(bookID uuid.UUID, status LoanStatus) (int64, error)
	CountLoansByMemberAndStatus(memberID uuid.UUID, status LoanStatus) (int64, error)
	FindLoansByStatusAndDueBefore(status LoanStatus, date time.Time) ([]Loan, error)
	FindLoansByMember(memberID uuid.UUID) ([]Loan, error)
}
