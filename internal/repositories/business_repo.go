package repositories

import (
	"context"

	"gestly/internal/models"

	"github.com/google/uuid"
)

type BusinessRepository interface {
	Create(ctx context.Context, business *models.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	// ListActiveIDs spans all tenants; it is used by background jobs.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type businessRepo struct {
	db DBTX
}

func NewBusinessRepo(db DBTX) BusinessRepository {
	return &businessRepo{db: db}
}

func (r *businessRepo) Create(ctx context.Context, business *models.Business) error {
	query := `
		INSERT INTO businesses (id, name, email, phone, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, business.ID, business.Name, business.Email, business.Phone, business.Timezone, business.Status).
		Scan(&business.CreatedAt, &business.UpdatedAt)
}

func (r *businessRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	b := &models.Business{}
	query := `
		SELECT id, name, email, phone, timezone, status, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Timezone, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *businessRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM businesses WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
