package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type LoyaltyProgram struct {
	ID                uuid.UUID `json:"id" db:"id"`
	BusinessID        uuid.UUID `json:"business_id" db:"business_id"`
	Name              string    `json:"name" db:"name"`
	PointsPerCurrency float64   `json:"points_per_currency" db:"points_per_currency"`
	Active            bool      `json:"active" db:"active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PointsFor returns the whole points earned for an amount spent.
func (p *LoyaltyProgram) PointsFor(amount float64) int {
	if !p.Active || amount <= 0 || p.PointsPerCurrency <= 0 {
		return 0
	}
	return int(math.Floor(amount * p.PointsPerCurrency))
}

type LoyaltyReward struct {
	ID             uuid.UUID `json:"id" db:"id"`
	BusinessID     uuid.UUID `json:"business_id" db:"business_id"`
	ProgramID      uuid.UUID `json:"program_id" db:"program_id"`
	Name           string    `json:"name" db:"name"`
	PointsRequired int       `json:"points_required" db:"points_required"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type LoyaltyTransaction struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BusinessID    uuid.UUID  `json:"business_id" db:"business_id"`
	CustomerID    uuid.UUID  `json:"customer_id" db:"customer_id"`
	Points        int        `json:"points" db:"points"`
	Reason        string     `json:"reason" db:"reason"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty" db:"appointment_id"`
	RewardID      *uuid.UUID `json:"reward_id,omitempty" db:"reward_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type LoyaltyBalance struct {
	CustomerID   uuid.UUID             `json:"customer_id"`
	Points       int                   `json:"points"`
	Transactions []*LoyaltyTransaction `json:"transactions"`
}
