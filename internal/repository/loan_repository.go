package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

type loanRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewLoanRepository(db SQLExecutor, logger *slog.Logger) domain.LoanRepository {
	return &loanRepository{
		db:     db,
		logger: logger,
	}
}

const loanColumns = `id, book_id, member_id, borrow_date, due_date, return_date, status, created_at, updated_at`

func (r *loanRepository) CreateLoan(loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		loan.ID,
		loan.BookID,
		loan.MemberID,
		loan.BorrowDate,
		loan.DueDate,
		nullableDate(loan.ReturnDate),
		loan.Status,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation on the one-active-loan-per-book index
				r.logger.Warn("Concurrent borrow lost the race", "book_id", loan.BookID)
				return errors.ErrBookUnavailable
			case "40001": // serialization_failure: same business condition, found at commit
				r.logger.Warn("Borrow serialization failure", "book_id", loan.BookID)
				return errors.ErrBookUnavailable
			}
		}
		r.logger.Error("Failed to create loan",
			"book_id", loan.BookID,
			"member_id", loan.MemberID,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	loan.CreatedAt = now
	loan.UpdatedAt = now
	r.logger.Info("Loan created", "loan_id", loan.ID, "book_id", loan.BookID, "member_id", loan.MemberID)
	return nil
}

func (r *loanRepository) GetLoan(id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanLoan(query, id)
}

func (r *loanRepository) GetLoanForUpdate(id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.scanLoan(query, id)
}

func (r *loanRepository) scanLoan(query string, args ...interface{}) (*domain.Loan, error) {
	var loan domain.Loan
	var returnDate sql.NullTime

	err := r.db.QueryRow(query, args...).Scan(
		&loan.ID,
		&loan.BookID,
		&loan.MemberID,
		&loan.BorrowDate,
		&loan.DueDate,
		&returnDate,
		&loan.Status,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrLoanNotFound
		}
		r.logger.Error("Failed to get loan", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	if returnDate.Valid {
		t := returnDate.Time
		loan.ReturnDate = &t
	}
	return &loan, nil
}

func (r *loanRepository) UpdateLoan(loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET borrow_date = $1, due_date = $2, return_date = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(
		query,
		loan.BorrowDate,
		loan.DueDate,
		nullableDate(loan.ReturnDate),
		loan.Status,
		time.Now(),
		loan.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			// check_violation: return_date must be present exactly when the
			// loan is closed
			r.logger.Warn("Loan update rejected by state check", "loan_id", loan.ID, "status", loan.Status)
			return errors.ErrInconsistentLoanState
		}
		r.logger.Error("Failed to update loan", "loan_id", loan.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update transaction").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrLoanNotFound
	}

	r.logger.Info("Loan updated", "loan_id", loan.ID, "status", loan.Status)
	return nil
}

func (r *loanRepository) DeleteLoan(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete loan", "loan_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete transaction").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrLoanNotFound
	}

	r.logger.Info("Loan deleted", "loan_id", id)
	return nil
}

func (r *loanRepository) ListLoans() ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`
	return r.scanLoans(query)
}

func (r *loanRepository) CountLoansByBookAndStatus(bookID uuid.UUID, status domain.LoanStatus) (int64, error) {
	return r.countLoans(`SELECT COUNT(*) FROM loans WHERE book_id = $1 AND status = $2`, bookID, status)
}

func (r *loanRepository) CountLoansByMemberAndStatus(memberID uuid.UUID, status domain.LoanStatus) (int64, error) {
	return r.countLoans(`SELECT COUNT(*) FROM loans WHERE member_id = $1 AND status = $2`, memberID, status)
}

func (r *loanRepository) countLoans(query string, args ...interface{}) (int64, error) {
	var count int64
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count loans", "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to count transactions").WithDetails(err.Error())
	}
	return count, nil
}

func (r *loanRepository) FindLoansByStatusAndDueBefore(status domain.LoanStatus, date time.Time) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date
	`
	return r.scanLoans(query, status, date)
}

func (r *loanRepository) FindLoansByMember(memberID uuid.UUID) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE member_id = $1
		ORDER BY borrow_date DESC
	`
	return r.scanLoans(query, memberID)
}

func (r *loanRepository) scanLoans(query string, args ...interface{}) ([]domain.Loan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list loans", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		var loan domain.Loan
		var returnDate sql.NullTime

		if err := rows.Scan(
			&loan.ID,
			&loan.BookID,
			&loan.MemberID,
			&loan.BorrowDate,
			&loan.DueDate,
			&returnDate,
			&loan.Status,
			&loan.CreatedAt,
			&loan.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		if returnDate.Valid {
			t := returnDate.Time
			loan.ReturnDate = &t
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate transactions").WithDetails(err.Error())
	}
	return loans, nil
}

func nullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
