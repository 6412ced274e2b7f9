package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"library-lending/internal/errors"
	"library-lending/internal/service"
)

type BookHandler struct {
	bookService *service.BookService
}

func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

type CreateBookRequest struct {
	Title           string  `json:"title"`
	ISBN            string  `json:"isbn"`
	Edition         string  `json:"edition,omitempty"`
	PublicationYear int     `json:"publication_year,omitempty"`
	Summary         string  `json:"summary,omitempty"`
	PublisherID     *string `json:"publisher_id,omitempty"`
	LanguageID      *string `json:"language_id,omitempty"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	Edition         *string `json:"edition,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty"`
	Summary         *string `json:"summary,omitempty"`
	PublisherID     *string `json:"publisher_id,omitempty"`
	LanguageID      *string `json:"language_id,omitempty"`
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	publisherID, err := optionalUUID(req.PublisherID, "publisher_id")
	if err != nil {
		writeError(w, err)
		return
	}
	languageID, err := optionalUUID(req.LanguageID, "language_id")
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.bookService.Create(service.CreateBookRequest{
		Title:           req.Title,
		ISBN:            req.ISBN,
		Edition:         req.Edition,
		PublicationYear: req.PublicationYear,
		Summary:         req.Summary,
		PublisherID:     publisherID,
		LanguageID:      languageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.bookService.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.List()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	publisherID, err := optionalUUID(req.PublisherID, "publisher_id")
	if err != nil {
		writeError(w, err)
		return
	}
	languageID, err := optionalUUID(req.LanguageID, "language_id")
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.bookService.Update(id, service.UpdateBookRequest{
		Title:           req.Title,
		ISBN:            req.ISBN,
		Edition:         req.Edition,
		PublicationYear: req.PublicationYear,
		Summary:         req.Summary,
		PublisherID:     publisherID,
		LanguageID:      languageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.bookService.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func optionalUUID(value *string, name string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "invalid %s", name)
	}
	return &id, nil
}
