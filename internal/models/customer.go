package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BusinessID    uuid.UUID  `json:"business_id" db:"business_id"`
	Name          string     `json:"name" db:"name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Birthday      *time.Time `json:"birthday,omitempty" db:"birthday"`
	Notes         string     `json:"notes" db:"notes"`
	LoyaltyPoints int        `json:"loyalty_points" db:"loyalty_points"`
	TotalVisits   int        `json:"total_visits" db:"total_visits"`
	TotalSpent    float64    `json:"total_spent" db:"total_spent"`
	LastVisitAt   *time.Time `json:"last_visit_at,omitempty" db:"last_visit_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
