package services

import (
	"context"
	"fmt"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher fans business events out to subscribed webhooks.
type EventPublisher interface {
	Publish(ctx context.Context, businessID uuid.UUID, event string, data interface{})
	// SendTest delivers a webhook.test event to one webhook synchronously.
	SendTest(ctx context.Context, webhook *models.Webhook) (*models.WebhookDelivery, error)
}

type nopPublisher struct{}

// NopPublisher discards events.
func NopPublisher() EventPublisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, uuid.UUID, string, interface{}) {}

func (nopPublisher) SendTest(context.Context, *models.Webhook) (*models.WebhookDelivery, error) {
	return nil, fmt.Errorf("webhook delivery is not configured")
}

// MetricsInvalidator drops the cached dashboard metrics of a business.
type MetricsInvalidator interface {
	InvalidateBusinessCache(ctx context.Context, businessID uuid.UUID) error
}

// invalidateMetrics is a no-op for a nil invalidator. Failures only log, the
// entry still expires with its TTL.
func invalidateMetrics(ctx context.Context, metrics MetricsInvalidator, businessID uuid.UUID, logger *zap.Logger) {
	if metrics == nil {
		return
	}
	if err := metrics.InvalidateBusinessCache(ctx, businessID); err != nil {
		logger.Warn("invalidate metrics cache",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}
}

// Not-found messages per resource.
const (
	msgProfileNotFound     = "Profissional não encontrado"
	msgAPIKeyNotFound      = "Chave de API não encontrada"
	msgCustomerNotFound    = "Cliente não encontrado"
	msgServiceNotFound     = "Serviço não encontrado"
	msgAppointmentNotFound = "Agendamento não encontrado"
	msgCommissionNotFound  = "Comissão não encontrada"
	msgProgramNotFound     = "Programa de fidelidade não encontrado"
	msgRewardNotFound      = "Recompensa não encontrada"
	msgReviewNotFound      = "Avaliação não encontrada"
	msgWebhookNotFound     = "Webhook não encontrado"
)

// notFoundOr maps a missing row to a 404 with message and wraps anything else.
func notFoundOr(err error, message, op string) error {
	if err == nil {
		return nil
	}
	if repositories.IsNoRows(err) {
		return common.NotFound(message)
	}
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
