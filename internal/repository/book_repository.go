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

type bookRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewBookRepository(db SQLExecutor, logger *slog.Logger) domain.BookRepository {
	return &bookRepository{
		db:     db,
		logger: logger,
	}
}

const bookColumns = `id, title, isbn, edition, publication_year, summary, publisher_id, language_id, created_at, updated_at`

func (r *bookRepository) CreateBook(book *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		book.ID,
		book.Title,
		book.ISBN,
		nullableString(book.Edition),
		nullableInt(book.PublicationYear),
		nullableString(book.Summary),
		book.PublisherID,
		book.LanguageID,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.logger.Warn("Duplicate ISBN", "isbn", book.ISBN)
			return errors.ErrDuplicateISBN
		}
		r.logger.Error("Failed to create book", "isbn", book.ISBN, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create book").WithDetails(err.Error())
	}

	book.CreatedAt = now
	book.UpdatedAt = now
	r.logger.Info("Book created", "book_id", book.ID, "title", book.Title)
	return nil
}

func (r *bookRepository) GetBook(id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var book domain.Book
	var edition, summary sql.NullString
	var publicationYear sql.NullInt64
	var publisherID, languageID uuid.NullUUID

	err := r.db.QueryRow(query, id).Scan(
		&book.ID,
		&book.Title,
		&book.ISBN,
		&edition,
		&publicationYear,
		&summary,
		&publisherID,
		&languageID,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrBookNotFound
		}
		r.logger.Error("Failed to get book", "book_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get book").WithDetails(err.Error())
	}

	book.Edition = edition.String
	book.Summary = summary.String
	book.PublicationYear = int(publicationYear.Int64)
	book.PublisherID = nullUUIDPtr(publisherID)
	book.LanguageID = nullUUIDPtr(languageID)
	return &book, nil
}

func (r *bookRepository) ListBooks() ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list books", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list books").WithDetails(err.Error())
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var book domain.Book
		var edition, summary sql.NullString
		var publicationYear sql.NullInt64
		var publisherID, languageID uuid.NullUUID

		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.ISBN,
			&edition,
			&publicationYear,
			&summary,
			&publisherID,
			&languageID,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan book").WithDetails(err.Error())
		}

		book.Edition = edition.String
		book.Summary = summary.String
		book.PublicationYear = int(publicationYear.Int64)
		book.PublisherID = nullUUIDPtr(publisherID)
		book.LanguageID = nullUUIDPtr(languageID)
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate books").WithDetails(err.Error())
	}
	return books, nil
}

func (r *bookRepository) UpdateBook(book *domain.Book) error {
	query := `
		UPDATE books
		SET title = $1, isbn = $2, edition = $3, publication_year = $4, summary = $5,
		    publisher_id = $6, language_id = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(
		query,
		book.Title,
		book.ISBN,
		nullableString(book.Edition),
		nullableInt(book.PublicationYear),
		nullableString(book.Summary),
		book.PublisherID,
		book.LanguageID,
		time.Now(),
		book.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrDuplicateISBN
		}
		r.logger.Error("Failed to update book", "book_id", book.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update book").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrBookNotFound
	}

	r.logger.Info("Book updated", "book_id", book.ID)
	return nil
}

func (r *bookRepository) DeleteBook(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			// foreign_key_violation: loans still reference this book
			return errors.ErrBookHasLoans
		}
		r.logger.Error("Failed to delete book", "book_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete book").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrBookNotFound
	}

	r.logger.Info("Book deleted", "book_id", id)
	return nil
}

func nullUUIDPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
