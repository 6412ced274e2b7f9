package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

// LoanService is the borrowing transaction lifecycle engine. Every mutating
// operation runs inside a single database transaction so the availability and
// borrowing-limit checks commit atomically with the write they guard.
type LoanService struct {
	store          domain.Store
	logger         *slog.Logger
	maxActiveLoans int64
	loanPeriodDays int
	now            func() time.Time
}

func NewLoanService(store domain.Store, logger *slog.Logger, maxActiveLoans, loanPeriodDays int) *LoanService {
	return &LoanService{
		store:          store,
		logger:         logger,
		maxActiveLoans: int64(maxActiveLoans),
		loanPeriodDays: loanPeriodDays,
		now:            time.Now,
	}
}

// today returns the current date at UTC midnight. The lifecycle works in day
// granularity: lateness compares dates, not instants.
func (s *LoanService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create borrows a book for a member. Preconditions, in order: book exists,
// member exists, book has no active loan, member is under the borrowing
// limit. The member row is locked first so concurrent borrows by the same
// member serialize; the partial unique index on (book_id, status=BORROWED)
// backstops the availability check against concurrent borrows of the same
// book.
func (s *LoanService) Create(bookID, memberID uuid.UUID) (*domain.Loan, error) {
	s.logger.Info("Creating loan", "book_id", bookID, "member_id", memberID)

	var created *domain.Loan
	err := s.store.WithTransaction(func(tx domain.Store) error {
		if _, err := tx.Books().GetBook(bookID); err != nil {
			return err
		}
		if _, err := tx.Members().GetMemberForUpdate(memberID); err != nil {
			return err
		}

		activeForBook, err := tx.Loans().CountLoansByBookAndStatus(bookID, domain.LoanStatusBorrowed)
		if err != nil {
			return err
		}
		if activeForBook > 0 {
			return errors.ErrBookUnavailable
		}

		activeForMember, err := tx.Loans().CountLoansByMemberAndStatus(memberID, domain.LoanStatusBorrowed)
		if err != nil {
			return err
		}
		if activeForMember >= s.maxActiveLoans {
			return errors.ErrBorrowLimit
		}

		borrowDate := s.today()
		loan := &domain.Loan{
			ID:         uuid.New(),
			BookID:     bookID,
			MemberID:   memberID,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.AddDate(0, 0, s.loanPeriodDays),
			Status:     domain.LoanStatusBorrowed,
		}
		if err := tx.Loans().CreateLoan(loan); err != nil {
			return err
		}
		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan created", "loan_id", created.ID, "due_date", created.DueDate)
	return created, nil
}

// Return closes a loan. The return date is today; the status becomes LATE
// only if today is strictly after the due date, otherwise RETURNED. Both
// terminal states reject a second return.
func (s *LoanService) Return(id uuid.UUID) (*domain.Loan, error) {
	var returned *domain.Loan
	err := s.store.WithTransaction(func(tx domain.Store) error {
		loan, err := tx.Loans().GetLoanForUpdate(id)
		if err != nil {
			return err
		}
		if loan.Status.IsTerminal() {
			return errors.ErrAlreadyReturned
		}

		returnDate := s.today()
		loan.ReturnDate = &returnDate
		if returnDate.After(loan.DueDate) {
			loan.Status = domain.LoanStatusLate
		} else {
			loan.Status = domain.LoanStatusReturned
		}

		if err := tx.Loans().UpdateLoan(loan); err != nil {
			return err
		}
		returned = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan returned", "loan_id", returned.ID, "status", returned.Status)
	return returned, nil
}

// UpdateLoanRequest carries the administrative date corrections. Nil fields
// are left untouched.
type UpdateLoanRequest struct {
	BorrowDate *time.Time
	DueDate    *time.Time
	ReturnDate *time.Time
}

// Update overwrites the dates present in the request. It is a correction
// path: it bypasses the lifecycle preconditions and never recomputes the
// status, which only Return derives. The stored state check still holds: a
// return date is accepted only on a closed loan.
func (s *LoanService) Update(id uuid.UUID, req UpdateLoanRequest) (*domain.Loan, error) {
	var updated *domain.Loan
	err := s.store.WithTransaction(func(tx domain.Store) error {
		loan, err := tx.Loans().GetLoanForUpdate(id)
		if err != nil {
			return err
		}

		if req.BorrowDate != nil {
			loan.BorrowDate = *req.BorrowDate
		}
		if req.DueDate != nil {
			loan.DueDate = *req.DueDate
		}
		if req.ReturnDate != nil {
			loan.ReturnDate = req.ReturnDate
		}

		if err := tx.Loans().UpdateLoan(loan); err != nil {
			return err
		}
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan updated", "loan_id", updated.ID)
	return updated, nil
}

// Delete removes a loan unconditionally. Administrative, irreversible.
func (s *LoanService) Delete(id uuid.UUID) error {
	if err := s.store.Loans().DeleteLoan(id); err != nil {
		return err
	}
	s.logger.Info("Loan deleted", "loan_id", id)
	return nil
}

func (s *LoanService) Get(id uuid.UUID) (*domain.Loan, error) {
	return s.store.Loans().GetLoan(id)
}

func (s *LoanService) List() ([]domain.Loan, error) {
	return s.store.Loans().ListLoans()
}

// Overdue lists loans still BORROWED whose due date has passed. This is a
// query, not a transition: an overdue loan stays BORROWED until it is
// returned.
func (s *LoanService) Overdue() ([]domain.Loan, error) {
	return s.store.Loans().FindLoansByStatusAndDueBefore(domain.LoanStatusBorrowed, s.today())
}

// MemberHistory lists a member's loans, most recent borrow first.
func (s *LoanService) MemberHistory(memberID uuid.UUID) ([]domain.Loan, error) {
	if _, err := s.store.Members().GetMember(memberID); err != nil {
		return nil, err
	}
	return s.store.Loans().FindLoansByMember(memberID)
}

// IsAvailable reports whether the book's single copy is loanable. Derived
// from the loan table on every call; there is no cached availability flag.
func (s *LoanService) IsAvailable(bookID uuid.UUID) (bool, error) {
	count, err := s.store.Loans().CountLoansByBookAndStatus(bookID, domain.LoanStatusBorrowed)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CanBorrow reports whether the member is under the active-loan limit.
func (s *LoanService) CanBorrow(memberID uuid.UUID) (bool, error) {
	count, err := s.store.Loans().CountLoansByMemberAndStatus(memberID, domain.LoanStatusBorrowed)
	if err != nil {
		return false, err
	}
	return count < s.maxActiveLoans, nil
}
