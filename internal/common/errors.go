package common

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// MsgInternal is the only message an internal error ever shows to callers.
const MsgInternal = "Erro interno do servidor"

// AppError is an error that knows how it is presented over HTTP.
type AppError struct {
	Status     int
	Code       string
	Message    string
	Details    map[string]string
	RetryAfter time.Duration
	Err        error
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

// ValidationError reports malformed input, optionally with per-field messages.
func ValidationError(message string, details map[string]string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

// FieldError is a ValidationError for a single field.
func FieldError(field, message string) *AppError {
	return ValidationError(message, map[string]string{field: message})
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Não autorizado"
	}
	return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "Permissão insuficiente"
	}
	return &AppError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NotFound(message string) *AppError {
	if message == "" {
		message = "Recurso não encontrado"
	}
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func RateLimited(retryAfter time.Duration) *AppError {
	return &AppError{
		Status:     http.StatusTooManyRequests,
		Code:       CodeRateLimited,
		Message:    "Limite de requisições excedido",
		RetryAfter: retryAfter,
	}
}

// Internal wraps an unexpected error. The cause is kept for logging only.
func Internal(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: MsgInternal, Err: err}
}

// AsAppError returns the AppError in err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is an AppError with a 404 status.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Status == http.StatusNotFound
}
