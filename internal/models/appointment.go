package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// appointmentTransitions lists the allowed status changes. Completed and
// cancelled are terminal.
var appointmentTransitions = map[string][]string{
	AppointmentScheduled: {AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

type Appointment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	BusinessID     uuid.UUID  `json:"business_id" db:"business_id"`
	CustomerID     uuid.UUID  `json:"customer_id" db:"customer_id"`
	ServiceID      uuid.UUID  `json:"service_id" db:"service_id"`
	ProfessionalID *uuid.UUID `json:"professional_id,omitempty" db:"professional_id"`
	StartsAt       time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt         time.Time  `json:"ends_at" db:"ends_at"`
	Status         string     `json:"status" db:"status"`
	Price          float64    `json:"price" db:"price"`
	Notes          string     `json:"notes" db:"notes"`
	RemindedAt     *time.Time `json:"reminded_at,omitempty" db:"reminded_at"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	From           *time.Time
	To             *time.Time
	Status         string
	CustomerID     *uuid.UUID
	ProfessionalID *uuid.UUID
	Limit          int
	Offset         int
}

func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}
