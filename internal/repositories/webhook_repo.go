package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WebhookRepository interface {
	Create(ctx context.Context, webhook *models.Webhook) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Webhook, error)
	List(ctx context.Context, businessID uuid.UUID) ([]*models.Webhook, error)
	Update(ctx context.Context, webhook *models.Webhook) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	ListSubscribed(ctx context.Context, businessID uuid.UUID, event string) ([]*models.Webhook, error)
}

type WebhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *models.WebhookDelivery) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.WebhookDelivery, error)
	ListByWebhook(ctx context.Context, businessID, webhookID uuid.UUID, limit, offset int) ([]*models.WebhookDelivery, error)
	// ListDue spans all businesses; it is used by the retry job.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error)
	// RecordAttempt stores the outcome of one delivery attempt.
	RecordAttempt(ctx context.Context, delivery *models.WebhookDelivery) error
}

type webhookRepo struct {
	db DBTX
}

func NewWebhookRepo(db DBTX) WebhookRepository {
	return &webhookRepo{db: db}
}

const webhookColumns = `id, business_id, url, events, secret, active, created_at, updated_at`

func scanWebhook(row pgx.Row) (*models.Webhook, error) {
	w := &models.Webhook{}
	if err := row.Scan(&w.ID, &w.BusinessID, &w.URL, &w.Events, &w.Secret, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return w, nil
}

func collectWebhooks(rows pgx.Rows) ([]*models.Webhook, error) {
	defer rows.Close()
	webhooks := []*models.Webhook{}
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (r *webhookRepo) Create(ctx context.Context, webhook *models.Webhook) error {
	query := `
		INSERT INTO webhooks (id, business_id, url, events, secret, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, webhook.ID, webhook.BusinessID, webhook.URL, webhook.Events, webhook.Secret, webhook.Active).
		Scan(&webhook.CreatedAt, &webhook.UpdatedAt)
}

func (r *webhookRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE business_id = $1 AND id = $2`
	return scanWebhook(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *webhookRepo) List(ctx context.Context, businessID uuid.UUID) ([]*models.Webhook, error) {
	rows, err := r.db.Query(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE business_id = $1 ORDER BY created_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	return collectWebhooks(rows)
}

func (r *webhookRepo) Update(ctx context.Context, webhook *models.Webhook) error {
	query := `
		UPDATE webhooks
		SET url = $1, events = $2, secret = $3, active = $4, updated_at = NOW()
		WHERE business_id = $5 AND id = $6
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, webhook.URL, webhook.Events, webhook.Secret, webhook.Active, webhook.BusinessID, webhook.ID).
		Scan(&webhook.UpdatedAt)
}

func (r *webhookRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM webhooks WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *webhookRepo) ListSubscribed(ctx context.Context, businessID uuid.UUID, event string) ([]*models.Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE business_id = $1 AND active AND ($2 = ANY(events) OR '*' = ANY(events))
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, businessID, event)
	if err != nil {
		return nil, err
	}
	return collectWebhooks(rows)
}

type webhookDeliveryRepo struct {
	db DBTX
}

func NewWebhookDeliveryRepo(db DBTX) WebhookDeliveryRepository {
	return &webhookDeliveryRepo{db: db}
}

const deliveryColumns = `id, business_id, webhook_id, event, payload, status, attempts, last_status_code, last_error, next_attempt_at, delivered_at, created_at, updated_at`

func scanDelivery(row pgx.Row) (*models.WebhookDelivery, error) {
	d := &models.WebhookDelivery{}
	var payload []byte
	err := row.Scan(&d.ID, &d.BusinessID, &d.WebhookID, &d.Event, &payload, &d.Status, &d.Attempts,
		&d.LastStatusCode, &d.LastError, &d.NextAttemptAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Payload = payload
	return d, nil
}

func collectDeliveries(rows pgx.Rows) ([]*models.WebhookDelivery, error) {
	defer rows.Close()
	deliveries := []*models.WebhookDelivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (r *webhookDeliveryRepo) Create(ctx context.Context, delivery *models.WebhookDelivery) error {
	query := `
		INSERT INTO webhook_deliveries (id, business_id, webhook_id, event, payload, status, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, delivery.ID, delivery.BusinessID, delivery.WebhookID, delivery.Event,
		[]byte(delivery.Payload), delivery.Status, delivery.NextAttemptAt).
		Scan(&delivery.CreatedAt, &delivery.UpdatedAt)
}

func (r *webhookDeliveryRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries WHERE business_id = $1 AND id = $2`
	return scanDelivery(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *webhookDeliveryRepo) ListByWebhook(ctx context.Context, businessID, webhookID uuid.UUID, limit, offset int) ([]*models.WebhookDelivery, error) {
	q := tenantScope("business_id", businessID).and("webhook_id = ?", webhookID)
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries` + q.where() + ` ORDER BY created_at DESC` + q.page(limit, offset)
	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	return collectDeliveries(rows)
}

func (r *webhookDeliveryRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM webhook_deliveries
		WHERE status = 'pending' AND next_attempt_at IS NOT NULL AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	return collectDeliveries(rows)
}

func (r *webhookDeliveryRepo) RecordAttempt(ctx context.Context, delivery *models.WebhookDelivery) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $1, attempts = $2, last_status_code = $3, last_error = $4,
			next_attempt_at = $5, delivered_at = $6, updated_at = NOW()
		WHERE business_id = $7 AND id = $8
	`
	return expectOne(r.db.Exec(ctx, query, delivery.Status, delivery.Attempts, delivery.LastStatusCode, delivery.LastError,
		delivery.NextAttemptAt, delivery.DeliveredAt, delivery.BusinessID, delivery.ID))
}
