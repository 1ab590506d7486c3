package services

import (
	"context"
	"strings"
	"testing"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memWebhooks stores created webhooks; every other call panics.
type memWebhooks struct {
	repositories.WebhookRepository
	created []*models.Webhook
}

func (m *memWebhooks) Create(ctx context.Context, w *models.Webhook) error {
	m.created = append(m.created, w)
	return nil
}

func TestWebhookService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   WebhookRequest
		field string
	}{
		{name: "ftp url", req: WebhookRequest{URL: "ftp://example.com/hook", Events: []string{"*"}}, field: "url"},
		{name: "relative url", req: WebhookRequest{URL: "/hook", Events: []string{"*"}}, field: "url"},
		{name: "no events", req: WebhookRequest{URL: "https://example.com/hook"}, field: "events"},
		{name: "unknown event", req: WebhookRequest{URL: "https://example.com/hook", Events: []string{"order.paid"}}, field: "events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memWebhooks{}
			svc := NewWebhookService(repo, nil, NopPublisher())

			_, err := svc.Create(context.Background(), uuid.New(), tt.req)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Details, tt.field)
			assert.Empty(t, repo.created)
		})
	}
}

func TestWebhookService_CreateGeneratesSecret(t *testing.T) {
	repo := &memWebhooks{}
	svc := NewWebhookService(repo, nil, NopPublisher())

	webhook, err := svc.Create(context.Background(), uuid.New(), WebhookRequest{
		URL:    "https://example.com/hook",
		Events: []string{models.EventAppointmentCreated, models.EventAppointmentCreated},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(webhook.Secret, webhookSecretPrefix))
	assert.Equal(t, []string{models.EventAppointmentCreated}, webhook.Events)
	assert.True(t, webhook.Active)
	require.Len(t, repo.created, 1)
}

func TestWebhookService_CreateKeepsGivenSecret(t *testing.T) {
	repo := &memWebhooks{}
	svc := NewWebhookService(repo, nil, NopPublisher())

	webhook, err := svc.Create(context.Background(), uuid.New(), WebhookRequest{
		URL:    "http://localhost:9000/hook",
		Events: []string{"*"},
		Secret: "shh",
	})
	require.NoError(t, err)
	assert.Equal(t, "shh", webhook.Secret)
}
