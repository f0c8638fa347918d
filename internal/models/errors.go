package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Store-level sentinels. Stores return these (possibly wrapped) and the HTTP
// layer translates them into AppErrors.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Error codes reported in the JSON body.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeStore           = "STORE_ERROR"
)

// ErrorResponse is the JSON shape of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AppError carries a client-facing message, an HTTP status and an optional
// underlying cause.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Status: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// NewConflictError is reported as 400, matching the register contract.
func NewConflictError(message string, err error) *AppError {
	return &AppError{Code: CodeConflict, Status: http.StatusBadRequest, Message: message, Err: err}
}

// NewStoreError wraps an unexpected persistence failure. The cause text is
// sent to the client in the "error" field.
func NewStoreError(err error) *AppError {
	return &AppError{Code: CodeStore, Status: http.StatusInternalServerError, Message: "Server error", Err: err}
}

// FromStoreError maps store sentinels to client errors; anything else becomes
// a store error.
func FromStoreError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrUserNotFound):
		return NewNotFoundError("User not found")
	case errors.Is(err, ErrPostNotFound):
		return NewNotFoundError("Post not found")
	case errors.Is(err, ErrDuplicateEmail):
		return NewConflictError("Error registering user", err)
	default:
		return NewStoreError(err)
	}
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RespondWithError writes the standardized error body for err.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr := FromStoreError(err)
	resp := ErrorResponse{Message: appErr.Message, Code: appErr.Code}
	if appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}
	WriteJSON(w, appErr.Status, resp)
}
