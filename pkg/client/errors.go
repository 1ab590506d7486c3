package client

import (
	"errors"
	"fmt"
)

// GenericMessage is shown for every error that did not come from the API.
const GenericMessage = "Ocorreu um erro inesperado. Tente novamente."

// APIError is an error envelope returned by the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gestly api: %d %s", e.StatusCode, e.Message)
}

// UserMessage returns the text to show an end user for err: the API's own
// message for an *APIError, the generic message for anything else.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
