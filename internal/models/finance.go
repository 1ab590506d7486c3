package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"

	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

type Commission struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	BusinessID     uuid.UUID  `json:"business_id" db:"business_id"`
	AppointmentID  uuid.UUID  `json:"appointment_id" db:"appointment_id"`
	ProfessionalID uuid.UUID  `json:"professional_id" db:"professional_id"`
	Rate           float64    `json:"rate" db:"rate"`
	Amount         float64    `json:"amount" db:"amount"`
	Status         string     `json:"status" db:"status"`
	PaidAt         *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// CommissionSummary aggregates commissions of one professional.
type CommissionSummary struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	FullName       string    `json:"full_name"`
	Pending        float64   `json:"pending"`
	Paid           float64   `json:"paid"`
	Count          int       `json:"count"`
}

type CommissionFilter struct {
	ProfessionalID *uuid.UUID
	Status         string
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

type FinancialTransaction struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BusinessID    uuid.UUID  `json:"business_id" db:"business_id"`
	Type          string     `json:"type" db:"type"`
	Category      string     `json:"category" db:"category"`
	Amount        float64    `json:"amount" db:"amount"`
	Description   string     `json:"description" db:"description"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty" db:"appointment_id"`
	OccurredAt    time.Time  `json:"occurred_at" db:"occurred_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type TransactionFilter struct {
	Type   string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type FinancialSummary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}
