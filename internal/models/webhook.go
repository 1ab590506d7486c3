package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

type Webhook struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BusinessID uuid.UUID `json:"business_id" db:"business_id"`
	URL        string    `json:"url" db:"url"`
	Events     []string  `json:"events" db:"events"`
	Secret     string    `json:"secret,omitempty" db:"secret"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Subscribes reports whether the webhook wants the given event.
func (w *Webhook) Subscribes(event string) bool {
	if !w.Active {
		return false
	}
	for _, e := range w.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

type WebhookDelivery struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	BusinessID     uuid.UUID       `json:"business_id" db:"business_id"`
	WebhookID      uuid.UUID       `json:"webhook_id" db:"webhook_id"`
	Event          string          `json:"event" db:"event"`
	Payload        json.RawMessage `json:"payload" db:"payload"`
	Status         string          `json:"status" db:"status"`
	Attempts       int             `json:"attempts" db:"attempts"`
	LastStatusCode *int            `json:"last_status_code,omitempty" db:"last_status_code"`
	LastError      string          `json:"last_error" db:"last_error"`
	NextAttemptAt  *time.Time      `json:"next_attempt_at,omitempty" db:"next_attempt_at"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Webhook event names.
const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentUpdated       = "appointment.updated"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentCancelled     = "appointment.cancelled"
	EventAppointmentCompleted     = "appointment.completed"
	EventAppointmentReminder      = "appointment.reminder"
	EventCustomerCreated          = "customer.created"
	EventCustomerUpdated          = "customer.updated"
	EventLoyaltyRewardRedeemed    = "loyalty.reward_redeemed"
	EventReviewCreated            = "review.created"
	EventWebhookTest              = "webhook.test"
)

// WebhookEvents lists the events a webhook may subscribe to. "*" subscribes
// to all of them.
var WebhookEvents = []string{
	EventAppointmentCreated,
	EventAppointmentUpdated,
	EventAppointmentStatusChanged,
	EventAppointmentCancelled,
	EventAppointmentCompleted,
	EventAppointmentReminder,
	EventCustomerCreated,
	EventCustomerUpdated,
	EventLoyaltyRewardRedeemed,
	EventReviewCreated,
}

func IsKnownEvent(event string) bool {
	if event == "*" {
		return true
	}
	for _, e := range WebhookEvents {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookEnvelope is the JSON body POSTed to subscribers.
type WebhookEnvelope struct {
	ID         uuid.UUID   `json:"id"`
	Event      string      `json:"event"`
	BusinessID uuid.UUID   `json:"business_id"`
	CreatedAt  time.Time   `json:"created_at"`
	Data       interface{} `json:"data"`
}
