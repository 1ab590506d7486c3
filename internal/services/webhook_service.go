package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
)

const webhookSecretPrefix = "whsec_"

type WebhookService interface {
	List(ctx context.Context, businessID uuid.UUID) ([]*models.Webhook, error)
	Create(ctx context.Context, businessID uuid.UUID, req WebhookRequest) (*models.Webhook, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Webhook, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req WebhookRequest) (*models.Webhook, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	ListDeliveries(ctx context.Context, businessID, id uuid.UUID, limit, offset int) ([]*models.WebhookDelivery, error)
	Test(ctx context.Context, businessID, id uuid.UUID) (*models.WebhookDelivery, error)
}

type WebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
	Active *bool    `json:"active"`
}

type webhookService struct {
	webhooks   repositories.WebhookRepository
	deliveries repositories.WebhookDeliveryRepository
	events     EventPublisher
}

func NewWebhookService(webhooks repositories.WebhookRepository, deliveries repositories.WebhookDeliveryRepository, events EventPublisher) WebhookService {
	return &webhookService{webhooks: webhooks, deliveries: deliveries, events: events}
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("invalid url")
	}
	return nil
}

func (r WebhookRequest) apply(w *models.Webhook) error {
	details := map[string]string{}
	target := strings.TrimSpace(r.URL)
	if err := validateWebhookURL(target); err != nil {
		details["url"] = "URL deve ser http(s) válida"
	}

	events := make([]string, 0, len(r.Events))
	seen := map[string]bool{}
	for _, e := range r.Events {
		e = strings.TrimSpace(e)
		if !models.IsKnownEvent(e) {
			details["events"] = fmt.Sprintf("Evento desconhecido: %s", e)
			break
		}
		if !seen[e] {
			seen[e] = true
			events = append(events, e)
		}
	}
	if len(r.Events) == 0 {
		details["events"] = "Informe ao menos um evento"
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}

	w.URL = target
	w.Events = events
	if secret := strings.TrimSpace(r.Secret); secret != "" {
		w.Secret = secret
	}
	if r.Active != nil {
		w.Active = *r.Active
	}
	return nil
}

func (s *webhookService) List(ctx context.Context, businessID uuid.UUID) ([]*models.Webhook, error) {
	webhooks, err := s.webhooks.List(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return webhooks, nil
}

func (s *webhookService) Create(ctx context.Context, businessID uuid.UUID, req WebhookRequest) (*models.Webhook, error) {
	webhook := &models.Webhook{ID: uuid.New(), BusinessID: businessID, Active: true}
	if err := req.apply(webhook); err != nil {
		return nil, err
	}
	if webhook.Secret == "" {
		secret, err := generateSecureToken(24)
		if err != nil {
			return nil, fmt.Errorf("generate webhook secret: %w", err)
		}
		webhook.Secret = webhookSecretPrefix + secret
	}
	if err := s.webhooks.Create(ctx, webhook); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return webhook, nil
}

func (s *webhookService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Webhook, error) {
	webhook, err := s.webhooks.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgWebhookNotFound, "get webhook")
	}
	return webhook, nil
}

func (s *webhookService) Update(ctx context.Context, businessID, id uuid.UUID, req WebhookRequest) (*models.Webhook, error) {
	webhook, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(webhook); err != nil {
		return nil, err
	}
	if err := s.webhooks.Update(ctx, webhook); err != nil {
		return nil, notFoundOr(err, msgWebhookNotFound, "update webhook")
	}
	return webhook, nil
}

func (s *webhookService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return notFoundOr(s.webhooks.Delete(ctx, businessID, id), msgWebhookNotFound, "delete webhook")
}

func (s *webhookService) ListDeliveries(ctx context.Context, businessID, id uuid.UUID, limit, offset int) ([]*models.WebhookDelivery, error) {
	if _, err := s.Get(ctx, businessID, id); err != nil {
		return nil, err
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	deliveries, err := s.deliveries.ListByWebhook(ctx, businessID, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// Test sends a webhook.test event right away, regardless of the webhook's
// subscriptions, and returns the recorded delivery.
func (s *webhookService) Test(ctx context.Context, businessID, id uuid.UUID) (*models.WebhookDelivery, error) {
	webhook, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	delivery, err := s.events.SendTest(ctx, webhook)
	if err != nil {
		return nil, fmt.Errorf("send test webhook: %w", err)
	}
	return delivery, nil
}
