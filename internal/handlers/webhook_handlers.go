package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers handles HTTP requests for outbound webhook subscriptions
type WebhookHandlers struct {
	webhookService services.WebhookService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(webhookService services.WebhookService) *WebhookHandlers {
	return &WebhookHandlers{webhookService: webhookService}
}

// ListWebhooks handles GET /webhooks
func (h *WebhookHandlers) ListWebhooks(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	webhooks, err := h.webhookService.List(c.Request().Context(), bizID)
	if err != nil {
		return err
	}
	return common.SendOK(c, webhooks)
}

// CreateWebhook handles POST /webhooks. The secret is generated when absent.
func (h *WebhookHandlers) CreateWebhook(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.WebhookRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	webhook, err := h.webhookService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, webhook)
}

// GetWebhook handles GET /webhooks/:id
func (h *WebhookHandlers) GetWebhook(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	webhook, err := h.webhookService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, webhook)
}

// UpdateWebhook handles PUT /webhooks/:id
func (h *WebhookHandlers) UpdateWebhook(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.WebhookRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	webhook, err := h.webhookService.Update(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, webhook)
}

// DeleteWebhook handles DELETE /webhooks/:id
func (h *WebhookHandlers) DeleteWebhook(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.webhookService.Delete(c.Request().Context(), bizID, id); err != nil {
		return err
	}
	return common.SendOK(c, map[string]string{"id": id.String()})
}

// ListDeliveries handles GET /webhooks/:id/deliveries
func (h *WebhookHandlers) ListDeliveries(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	deliveries, err := h.webhookService.ListDeliveries(c.Request().Context(), bizID, id, limit, offset)
	if err != nil {
		return err
	}
	return common.SendList(c, deliveries, limit, offset)
}

// TestWebhook handles POST /webhooks/:id/test and reports the ping outcome
func (h *WebhookHandlers) TestWebhook(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	delivery, err := h.webhookService.Test(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, delivery)
}
