package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Review, error)
	List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Review, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	ExistsForAppointment(ctx context.Context, businessID, appointmentID uuid.UUID) (bool, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.ReviewSummary, error)
}

type reviewRepo struct {
	db DBTX
}

func NewReviewRepo(db DBTX) ReviewRepository {
	return &reviewRepo{db: db}
}

const reviewColumns = `id, business_id, customer_id, appointment_id, rating, comment, created_at, updated_at`

func scanReview(row pgx.Row) (*models.Review, error) {
	rv := &models.Review{}
	if err := row.Scan(&rv.ID, &rv.BusinessID, &rv.CustomerID, &rv.AppointmentID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, business_id, customer_id, appointment_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, review.ID, review.BusinessID, review.CustomerID, review.AppointmentID, review.Rating, review.Comment).
		Scan(&review.CreatedAt, &review.UpdatedAt)
}

func (r *reviewRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE business_id = $1 AND id = $2`
	return scanReview(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *reviewRepo) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	q := tenantScope("business_id", businessID)
	query := `SELECT ` + reviewColumns + ` FROM reviews` + q.where() + ` ORDER BY created_at DESC` + q.page(limit, offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM reviews WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *reviewRepo) ExistsForAppointment(ctx context.Context, businessID, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE business_id = $1 AND appointment_id = $2)`
	err := r.db.QueryRow(ctx, query, businessID, appointmentID).Scan(&exists)
	return exists, err
}

func (r *reviewRepo) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.ReviewSummary, error) {
	q := periodScope("business_id", businessID, "created_at", from, to)
	rows, err := r.db.Query(ctx, `SELECT rating, COUNT(*) FROM reviews`+q.where()+` GROUP BY rating`, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &models.ReviewSummary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	total := 0
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		summary.Distribution[rating] = n
		summary.Count += n
		total += rating * n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}
