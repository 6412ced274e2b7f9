package service

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

type BookService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewBookService(store domain.Store, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		logger: logger,
	}
}

// CreateBookRequest carries the catalog fields. Publisher and language are
// plain id references; the catalog graph is not materialized here.
type CreateBookRequest struct {
	Title           string
	ISBN            string
	Edition         string
	PublicationYear int
	Summary         string
	PublisherID     *uuid.UUID
	LanguageID      *uuid.UUID
}

func (s *BookService) Create(req CreateBookRequest) (*domain.Book, error) {
	title := strings.TrimSpace(req.Title)
	isbn := strings.TrimSpace(req.ISBN)
	if title == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "title is required")
	}
	if isbn == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "isbn is required")
	}

	book := &domain.Book{
		ID:              uuid.New(),
		Title:           title,
		ISBN:            isbn,
		Edition:         req.Edition,
		PublicationYear: req.PublicationYear,
		Summary:         req.Summary,
		PublisherID:     req.PublisherID,
		LanguageID:      req.LanguageID,
	}
	if err := s.store.Books().CreateBook(book); err != nil {
		return nil, err
	}

	s.logger.Info("Book created", "book_id", book.ID, "title", book.Title)
	return book, nil
}

func (s *BookService) Get(id uuid.UUID) (*domain.Book, error) {
	return s.store.Books().GetBook(id)
}

func (s *BookService) List() ([]domain.Book, error) {
	return s.store.Books().ListBooks()
}

// UpdateBookRequest carries partial updates; nil fields are left untouched.
type UpdateBookRequest struct {
	Title           *string
	ISBN            *string
	Edition         *string
	PublicationYear *int
	Summary         *string
	PublisherID     *uuid.UUID
	LanguageID      *uuid.UUID
}

func (s *BookService) Update(id uuid.UUID, req UpdateBookRequest) (*domain.Book, error) {
	var updated *domain.Book
	err := s.store.WithTransaction(func(tx domain.Store) error {
		book, err := tx.Books().GetBook(id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			book.Title = strings.TrimSpace(*req.Title)
		}
		if req.ISBN != nil {
			book.ISBN = strings.TrimSpace(*req.ISBN)
		}
		if req.Edition != nil {
			book.Edition = *req.Edition
		}
		if req.PublicationYear != nil {
			book.PublicationYear = *req.PublicationYear
		}
		if req.Summary != nil {
			book.Summary = *req.Summary
		}
		if req.PublisherID != nil {
			book.PublisherID = req.PublisherID
		}
		if req.LanguageID != nil {
			book.LanguageID = req.LanguageID
		}

		if err := tx.Books().UpdateBook(book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BookService) Delete(id uuid.UUID) error {
	return s.store.Books().DeleteBook(id)
}
