package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner        = "owner"
	RoleAdmin        = "admin"
	RoleProfessional = "professional"
)

// Profile is a user of the dashboard. Professionals are profiles that
// perform appointments.
type Profile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	BusinessID     uuid.UUID `json:"business_id" db:"business_id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"` // Never serialize in JSON
	FullName       string    `json:"full_name" db:"full_name"`
	Role           string    `json:"role" db:"role"`
	CommissionRate float64   `json:"commission_rate" db:"commission_rate"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleProfessional:
		return true
	}
	return false
}
