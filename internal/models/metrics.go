package models

import "time"

// DashboardMetrics is the summary shown on the dashboard home.
type DashboardMetrics struct {
	From                 time.Time      `json:"from"`
	To                   time.Time      `json:"to"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	TotalAppointments    int            `json:"total_appointments"`
	Revenue              float64        `json:"revenue"`
	Expenses             float64        `json:"expenses"`
	NewCustomers         int            `json:"new_customers"`
	AverageRating        float64        `json:"average_rating"`
	ReviewCount          int            `json:"review_count"`
	PendingCommissions   float64        `json:"pending_commissions"`
	APIRequestsToday     int64          `json:"api_requests_today"`
	// APIRequests is the flushed request total of the period. It trails the
	// live counter by up to one flush interval.
	APIRequests int64 `json:"api_requests"`
}

type Migration struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	ExecutedAt time.Time `json:"executed_at" db:"executed_at"`
}
