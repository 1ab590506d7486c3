package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// APIKeyHandlers manages server-to-server credentials
type APIKeyHandlers struct {
	apiKeyService services.APIKeyService
}

func NewAPIKeyHandlers(apiKeyService services.APIKeyService) *APIKeyHandlers {
	return &APIKeyHandlers{apiKeyService: apiKeyService}
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

func (h *APIKeyHandlers) ListAPIKeys(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	keys, err := h.apiKeyService.List(c.Request().Context(), bizID)
	if err != nil {
		return err
	}
	return common.SendOK(c, keys)
}

// CreateAPIKey returns the raw key. It is never shown again.
func (h *APIKeyHandlers) CreateAPIKey(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req CreateAPIKeyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	key, err := h.apiKeyService.Create(c.Request().Context(), bizID, req.Name)
	if err != nil {
		return err
	}
	return common.SendCreated(c, key)
}

func (h *APIKeyHandlers) RevokeAPIKey(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	key, err := h.apiKeyService.Revoke(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, key)
}
