package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON wrapper of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ListPage wraps paginated collections inside the envelope data.
type ListPage struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// SendSuccess writes a success envelope
func SendSuccess(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// SendOK writes a 200 success envelope
func SendOK(c echo.Context, data interface{}) error {
	return SendSuccess(c, http.StatusOK, data)
}

// SendCreated writes a 201 success envelope
func SendCreated(c echo.Context, data interface{}) error {
	return SendSuccess(c, http.StatusCreated, data)
}

// SendList writes a paginated collection
func SendList(c echo.Context, items interface{}, limit, offset int) error {
	return SendOK(c, ListPage{Items: items, Limit: limit, Offset: offset})
}

// SendError writes an error envelope
func SendError(c echo.Context, status int, message string, details map[string]string) error {
	return c.JSON(status, Envelope{Success: false, Error: message, Details: details})
}
