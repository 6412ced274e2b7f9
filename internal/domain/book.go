package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry. Availability is never stored on the book; it is
// derived from the loan table so it cannot go stale.
type Book struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	ISBN            string     `json:"isbn"`
	Edition         string     `json:"edition,omitempty"`
	PublicationYear int        `json:"publication_year,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	PublisherID     *uuid.UUID `json:"publisher_id,omitempty"`
	LanguageID      *uuid.UUID `json:"language_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type BookRepository interface {
	CreateBook(book *Book) error
	GetBook(id uuid.UUID) (*Book, error)
	ListBooks() ([]Book, error)
	UpdateBook(book *Book) error
	DeleteBook(id uuid.UUID) error
}
