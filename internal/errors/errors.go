package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	NotFound      ErrorCode = "not_found"
	Conflict      ErrorCode = "conflict"
	InvalidInput  ErrorCode = "invalid_input"
	Unauthorized  ErrorCode = "unauthorized"
	Forbidden     ErrorCode = "forbidden"
	InternalError ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps the error code to the status the handlers respond with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes the error as the {"error": ...} response envelope. Every
// package that responds with an error uses this, so the envelope shape cannot
// drift.
func (e *AppError) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	json.NewEncoder(w).Encode(struct {
		Error *AppError `json:"error"`
	}{e})
}

// Predefined errors for common cases
var (
	ErrBookNotFound   = NewAppError(NotFound, "book not found")
	ErrMemberNotFound = NewAppError(NotFound, "member not found")
	ErrLoanNotFound   = NewAppError(NotFound, "transaction not found")
	ErrUserNotFound   = NewAppError(NotFound, "user not found")

	// ErrBookUnavailable covers both the availability check failing up front
	// and the unique-index violation discovered at commit time under
	// concurrent borrows. Same business condition, found late.
	ErrBookUnavailable  = NewAppError(Conflict, "book is not available for borrowing")
	ErrBorrowLimit      = NewAppError(Conflict, "member has reached maximum borrowing limit")
	ErrAlreadyReturned  = NewAppError(Conflict, "book has already been returned")
	ErrDuplicateISBN    = NewAppError(Conflict, "a book with this ISBN already exists")
	ErrDuplicateEmail   = NewAppError(Conflict, "a member with this email already exists")
	ErrDuplicateUser    = NewAppError(Conflict, "username or email already taken")
	ErrBookHasLoans     = NewAppError(Conflict, "book has loan history and cannot be deleted")

	// ErrInconsistentLoanState rejects date corrections that would leave a
	// loan with a return date while BORROWED, or without one while closed.
	ErrInconsistentLoanState = NewAppError(InvalidInput, "return date and status are inconsistent")
	ErrInvalidLogin     = NewAppError(Unauthorized, "invalid username or password")
	ErrTooManyAttempts  = NewAppError(Unauthorized, "too many login attempts, try again later")
	ErrMissingToken     = NewAppError(Unauthorized, "missing or malformed authorization header")
	ErrInvalidToken     = NewAppError(Unauthorized, "invalid or expired token")
	ErrInsufficientRole = NewAppError(Forbidden, "insufficient permissions for this operation")

	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin transaction from within a transaction")
)
