package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CommissionRepository interface {
	Create(ctx context.Context, commission *models.Commission) error
	List(ctx context.Context, businessID uuid.UUID, filter models.CommissionFilter) ([]*models.Commission, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) ([]*models.CommissionSummary, error)
	MarkPaid(ctx context.Context, businessID, id uuid.UUID, at time.Time) (*models.Commission, error)
	PendingTotal(ctx context.Context, businessID uuid.UUID) (float64, error)
}

type commissionRepo struct {
	db DBTX
}

func NewCommissionRepo(db DBTX) CommissionRepository {
	return &commissionRepo{db: db}
}

const commissionColumns = `id, business_id, appointment_id, professional_id, rate, amount, status, paid_at, created_at, updated_at`

func scanCommission(row pgx.Row) (*models.Commission, error) {
	c := &models.Commission{}
	err := row.Scan(&c.ID, &c.BusinessID, &c.AppointmentID, &c.ProfessionalID, &c.Rate, &c.Amount, &c.Status, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commissionRepo) Create(ctx context.Context, commission *models.Commission) error {
	query := `
		INSERT INTO commissions (id, business_id, appointment_id, professional_id, rate, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, commission.ID, commission.BusinessID, commission.AppointmentID,
		commission.ProfessionalID, commission.Rate, commission.Amount, commission.Status).
		Scan(&commission.CreatedAt, &commission.UpdatedAt)
}

func (r *commissionRepo) List(ctx context.Context, businessID uuid.UUID, filter models.CommissionFilter) ([]*models.Commission, error) {
	q := tenantScope("business_id", businessID)
	if filter.ProfessionalID != nil {
		q.and("professional_id = ?", *filter.ProfessionalID)
	}
	if filter.Status != "" {
		q.and("status = ?", filter.Status)
	}
	if filter.From != nil {
		q.and("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q.and("created_at < ?", *filter.To)
	}
	query := `SELECT ` + commissionColumns + ` FROM commissions` + q.where() + ` ORDER BY created_at DESC` + q.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commissions := []*models.Commission{}
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}

func (r *commissionRepo) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) ([]*models.CommissionSummary, error) {
	q := tenantScope("c.business_id", businessID)
	if from != nil {
		q.and("c.created_at >= ?", *from)
	}
	if to != nil {
		q.and("c.created_at < ?", *to)
	}
	query := `
		SELECT c.professional_id, p.full_name,
			COALESCE(SUM(c.amount) FILTER (WHERE c.status = 'pending'), 0),
			COALESCE(SUM(c.amount) FILTER (WHERE c.status = 'paid'), 0),
			COUNT(*)
		FROM commissions c
		JOIN profiles p ON p.id = c.professional_id AND p.business_id = c.business_id` + q.where() + `
		GROUP BY c.professional_id, p.full_name
		ORDER BY p.full_name ASC`

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []*models.CommissionSummary{}
	for rows.Next() {
		s := &models.CommissionSummary{}
		if err := rows.Scan(&s.ProfessionalID, &s.FullName, &s.Pending, &s.Paid, &s.Count); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *commissionRepo) MarkPaid(ctx context.Context, businessID, id uuid.UUID, at time.Time) (*models.Commission, error) {
	query := `
		UPDATE commissions
		SET status = 'paid', paid_at = COALESCE(paid_at, $1), updated_at = NOW()
		WHERE business_id = $2 AND id = $3
		RETURNING ` + commissionColumns
	return scanCommission(r.db.QueryRow(ctx, query, at, businessID, id))
}

func (r *commissionRepo) PendingTotal(ctx context.Context, businessID uuid.UUID) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM commissions WHERE business_id = $1 AND status = 'pending'`
	err := r.db.QueryRow(ctx, query, businessID).Scan(&total)
	return total, err
}
