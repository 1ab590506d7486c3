package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// UsageRepository keeps daily API request totals per business.
type UsageRepository interface {
	// Record stores the request count of one UTC day. Counts only grow, so a
	// lower value never replaces a higher one.
	Record(ctx context.Context, businessID uuid.UUID, day time.Time, requests int64) error
	// Total sums the recorded days in [from, to], both truncated to UTC days.
	Total(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error)
}

type usageRepo struct {
	db DBTX
}

func NewUsageRepo(db DBTX) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) Record(ctx context.Context, businessID uuid.UUID, day time.Time, requests int64) error {
	query := `
		INSERT INTO api_usage_daily (business_id, day, requests)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (business_id, day) DO UPDATE
		SET requests = GREATEST(api_usage_daily.requests, EXCLUDED.requests), updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, businessID, day.UTC().Format(dayLayout), requests)
	return err
}

func (r *usageRepo) Total(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(requests), 0) FROM api_usage_daily WHERE business_id = $1 AND day BETWEEN $2::date AND $3::date`
	err := r.db.QueryRow(ctx, query, businessID, from.UTC().Format(dayLayout), to.UTC().Format(dayLayout)).Scan(&total)
	return total, err
}
