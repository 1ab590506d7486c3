package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is an offering a business sells, e.g. a haircut.
type Service struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BusinessID      uuid.UUID `json:"business_id" db:"business_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Price           float64   `json:"price" db:"price"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Category        string    `json:"category" db:"category"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
