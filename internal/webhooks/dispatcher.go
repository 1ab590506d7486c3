// Package webhooks delivers business events to subscriber URLs.
package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderEvent     = "X-Gestly-Event"
	HeaderDelivery  = "X-Gestly-Delivery"
	HeaderSignature = "X-Gestly-Signature"

	// DefaultRetryDelay is the fixed wait between two attempts.
	DefaultRetryDelay = time.Minute

	dueBatchSize = 100
	maxErrorLen  = 500
)

type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Dispatcher records a delivery per subscribed webhook and POSTs it. Failed
// deliveries stay pending until RetryDue picks them up again.
type Dispatcher struct {
	webhooks   repositories.WebhookRepository
	deliveries repositories.WebhookDeliveryRepository
	client     *resty.Client
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

func NewDispatcher(webhooks repositories.WebhookRepository, deliveries repositories.WebhookDeliveryRepository, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Gestly-Webhooks/1.0")

	return &Dispatcher{
		webhooks:   webhooks,
		deliveries: deliveries,
		client:     client,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Sign returns the signature header value of body for secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (d *Dispatcher) newDelivery(businessID uuid.UUID, webhook *models.Webhook, event string, data interface{}) (*models.WebhookDelivery, error) {
	now := d.now().UTC()
	delivery := &models.WebhookDelivery{
		ID:         uuid.New(),
		BusinessID: businessID,
		WebhookID:  webhook.ID,
		Event:      event,
		Status:     models.DeliveryPending,
	}
	payload, err := json.Marshal(models.WebhookEnvelope{
		ID:         delivery.ID,
		Event:      event,
		BusinessID: businessID,
		CreatedAt:  now,
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}
	delivery.Payload = payload
	// The first attempt happens right away; the retry job only sees the row
	// once that attempt had its chance.
	next := now.Add(d.cfg.RetryDelay)
	delivery.NextAttemptAt = &next
	return delivery, nil
}

// Publish enqueues event for every active webhook of the business that
// subscribes to it. Delivery happens in the background.
func (d *Dispatcher) Publish(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	webhooks, err := d.webhooks.ListSubscribed(ctx, businessID, event)
	if err != nil {
		d.logger.Error("list subscribed webhooks failed", zap.String("event", event), zap.Error(err))
		return
	}

	bg := context.WithoutCancel(ctx)
	for _, webhook := range webhooks {
		delivery, err := d.newDelivery(businessID, webhook, event, data)
		if err != nil {
			d.logger.Error("build webhook delivery failed", zap.String("event", event), zap.Error(err))
			continue
		}
		if err := d.deliveries.Create(ctx, delivery); err != nil {
			d.logger.Error("store webhook delivery failed", zap.String("webhook_id", webhook.ID.String()), zap.Error(err))
			continue
		}

		d.wg.Add(1)
		go func(webhook *models.Webhook, delivery *models.WebhookDelivery) {
			defer d.wg.Done()
			d.attempt(bg, webhook, delivery)
		}(webhook, delivery)
	}
}

// SendTest sends a webhook.test event synchronously, ignoring subscriptions.
func (d *Dispatcher) SendTest(ctx context.Context, webhook *models.Webhook) (*models.WebhookDelivery, error) {
	delivery, err := d.newDelivery(webhook.BusinessID, webhook, models.EventWebhookTest, map[string]interface{}{
		"webhook_id": webhook.ID,
		"message":    "Gestly webhook test",
	})
	if err != nil {
		return nil, err
	}
	if err := d.deliveries.Create(ctx, delivery); err != nil {
		return nil, fmt.Errorf("store webhook delivery: %w", err)
	}
	d.attempt(ctx, webhook, delivery)
	return delivery, nil
}

// RetryDue re-sends pending deliveries whose next attempt is due and returns
// how many were attempted.
func (d *Dispatcher) RetryDue(ctx context.Context) (int, error) {
	due, err := d.deliveries.ListDue(ctx, d.now().UTC(), dueBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due deliveries: %w", err)
	}

	attempted := 0
	for _, delivery := range due {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}
		webhook, err := d.webhooks.GetByID(ctx, delivery.BusinessID, delivery.WebhookID)
		if err != nil && !repositories.IsNoRows(err) {
			d.logger.Error("load webhook failed", zap.String("delivery_id", delivery.ID.String()), zap.Error(err))
			continue
		}
		if webhook == nil || !webhook.Active {
			d.giveUp(ctx, delivery, "webhook inativo ou removido")
			continue
		}
		d.attempt(ctx, webhook, delivery)
		attempted++
	}
	return attempted, nil
}

func (d *Dispatcher) giveUp(ctx context.Context, delivery *models.WebhookDelivery, reason string) {
	delivery.Status = models.DeliveryFailed
	delivery.LastError = reason
	delivery.NextAttemptAt = nil
	if err := d.deliveries.RecordAttempt(ctx, delivery); err != nil {
		d.logger.Error("record webhook delivery failed", zap.String("delivery_id", delivery.ID.String()), zap.Error(err))
	}
}

// attempt POSTs the stored payload once and records the outcome.
func (d *Dispatcher) attempt(ctx context.Context, webhook *models.Webhook, delivery *models.WebhookDelivery) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader(HeaderEvent, delivery.Event).
		SetHeader(HeaderDelivery, delivery.ID.String()).
		SetHeader(HeaderSignature, Sign(webhook.Secret, delivery.Payload)).
		SetBody([]byte(delivery.Payload)).
		Post(webhook.URL)

	now := d.now().UTC()
	delivery.Attempts++
	delivery.LastStatusCode = nil
	switch {
	case err != nil:
		delivery.LastError = truncate(err.Error())
	case resp.IsSuccess():
		code := resp.StatusCode()
		delivery.LastStatusCode = &code
		delivery.LastError = ""
	default:
		code := resp.StatusCode()
		delivery.LastStatusCode = &code
		delivery.LastError = truncate(resp.Status())
	}

	fields := []zap.Field{
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("webhook_id", webhook.ID.String()),
		zap.String("event", delivery.Event),
		zap.Int("attempt", delivery.Attempts),
	}
	switch {
	case err == nil && resp.IsSuccess():
		delivery.Status = models.DeliveryDelivered
		delivery.DeliveredAt = &now
		delivery.NextAttemptAt = nil
		d.logger.Info("webhook delivered", fields...)
	case delivery.Attempts >= d.cfg.MaxAttempts:
		delivery.Status = models.DeliveryFailed
		delivery.NextAttemptAt = nil
		d.logger.Warn("webhook delivery failed permanently", append(fields, zap.String("error", delivery.LastError))...)
	default:
		next := now.Add(d.cfg.RetryDelay)
		delivery.Status = models.DeliveryPending
		delivery.NextAttemptAt = &next
		d.logger.Warn("webhook delivery failed, will retry", append(fields, zap.String("error", delivery.LastError))...)
	}

	if err := d.deliveries.RecordAttempt(ctx, delivery); err != nil {
		d.logger.Error("record webhook delivery failed", zap.String("delivery_id", delivery.ID.String()), zap.Error(err))
	}
}

// Wait blocks until background deliveries started by Publish finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func truncate(s string) string {
	if len(s) > maxErrorLen {
		return s[:maxErrorLen]
	}
	return s
}
