package common

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, FieldError(fieldName, fmt.Sprintf("%s é obrigatório", fieldName))
	}

	// Check exact length
	if len(idStr) != 36 {
		return uuid.Nil, FieldError(fieldName, fmt.Sprintf("%s deve ser um UUID válido", fieldName))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, FieldError(fieldName, fmt.Sprintf("%s deve ser um UUID válido", fieldName))
	}

	return id, nil
}

// ParseOptionalUUID parses an optional UUID; empty input yields nil.
func ParseOptionalUUID(idStr string, fieldName string) (*uuid.UUID, error) {
	if strings.TrimSpace(idStr) == "" {
		return nil, nil
	}
	id, err := ValidateUUID(idStr, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ValidatePaginationParams clamps pagination parameters to sane bounds
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ValidateEmail checks that the address parses and has a domain part
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return FieldError("email", "Email é obrigatório")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return FieldError("email", "Email inválido")
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 8 characters
// with at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return FieldError("password", "A senha deve ter pelo menos 8 caracteres")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return FieldError("password", "A senha deve conter letras e números")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeSearchQuery strips LIKE wildcards from user search input
func SanitizeSearchQuery(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}

	query = strings.ReplaceAll(query, "%", "")
	query = strings.ReplaceAll(query, "_", "")

	if len(query) > 100 {
		query = query[:100]
	}

	return strings.TrimSpace(query)
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return FieldError("to", "A data final não pode ser anterior à data inicial")
	}

	// Prevent querying unreasonably large date ranges
	if endDate.Sub(startDate) > time.Hour*24*366*5 {
		return FieldError("to", "O período não pode exceder 5 anos")
	}

	return nil
}

// ParseOptionalTime parses an RFC3339 timestamp or a YYYY-MM-DD date.
func ParseOptionalTime(value string, fieldName string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	return nil, FieldError(fieldName, fmt.Sprintf("%s deve estar no formato RFC3339 ou AAAA-MM-DD", fieldName))
}
