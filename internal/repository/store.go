package repository

import (
	"database/sql"
	"log/slog"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

// Store bundles the entity repositories over a shared executor and provides
// the unit-of-work boundary the loan lifecycle depends on.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store backed by the given database connection.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

func (s *Store) Books() domain.BookRepository {
	return NewBookRepository(s.executor, s.logger)
}

func (s *Store) Members() domain.MemberRepository {
	return NewMemberRepository(s.executor, s.logger)
}

func (s *Store) Loans() domain.LoanRepository {
	return NewLoanRepository(s.executor, s.logger)
}

func (s *Store) Users() domain.UserRepository {
	return NewUserRepository(s.executor, s.logger)
}

// WithTransaction executes fn within a single database transaction. All
// repositories obtained from the Store passed to fn share that transaction,
// so check-then-act sequences (availability, borrowing limit) commit or roll
// back as a unit.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	// Only sql.DB can begin transactions; nesting is not supported.
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
