package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
	"library-lending/internal/service"
)

type LoanHandler struct {
	loanService *service.LoanService
}

func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

type CreateLoanRequest struct {
	BookID   string `json:"book_id"`
	MemberID string `json:"member_id"`
}

type UpdateLoanRequest struct {
	BorrowDate *string `json:"borrow_date,omitempty"`
	DueDate    *string `json:"due_date,omitempty"`
	ReturnDate *string `json:"return_date,omitempty"`
}

type LoanResponse struct {
	ID         string  `json:"id"`
	BookID     string  `json:"book_id"`
	MemberID   string  `json:"member_id"`
	BorrowDate string  `json:"borrow_date"`
	DueDate    string  `json:"due_date"`
	ReturnDate *string `json:"return_date,omitempty"`
	Status     string  `json:"status"`
}

type AvailabilityResponse struct {
	BookID    string `json:"book_id"`
	Available bool   `json:"available"`
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:         loan.ID.String(),
		BookID:     loan.BookID.String(),
		MemberID:   loan.MemberID.String(),
		BorrowDate: formatDate(loan.BorrowDate),
		DueDate:    formatDate(loan.DueDate),
		ReturnDate: formatDatePtr(loan.ReturnDate),
		Status:     string(loan.Status),
	}
}

func toLoanResponses(loans []domain.Loan) []LoanResponse {
	responses := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, toLoanResponse(&loans[i]))
	}
	return responses
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid book_id"))
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid member_id"))
		return
	}

	loan, err := h.loanService.Create(bookID, memberID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := h.loanService.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanService.List()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	update := service.UpdateLoanRequest{}
	if req.BorrowDate != nil {
		t, err := parseDate(*req.BorrowDate)
		if err != nil {
			writeError(w, err)
			return
		}
		update.BorrowDate = &t
	}
	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			writeError(w, err)
			return
		}
		update.DueDate = &t
	}
	if req.ReturnDate != nil {
		t, err := parseDate(*req.ReturnDate)
		if err != nil {
			writeError(w, err)
			return
		}
		update.ReturnDate = &t
	}

	loan, err := h.loanService.Update(id, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.loanService.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := h.loanService.Return(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanService.Overdue()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

func (h *LoanHandler) MemberHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathUUID(r, "memberId")
	if err != nil {
		writeError(w, err)
		return
	}

	loans, err := h.loanService.MemberHistory(memberID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

func (h *LoanHandler) Availability(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathUUID(r, "bookId")
	if err != nil {
		writeError(w, err)
		return
	}

	available, err := h.loanService.IsAvailable(bookID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		BookID:    bookID.String(),
		Available: available,
	})
}
