package repositories

import (
	"context"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, businessID uuid.UUID, active *bool, limit, offset int) ([]*models.Service, error)
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

type serviceRepo struct {
	db DBTX
}

func NewServiceRepo(db DBTX) ServiceRepository {
	return &serviceRepo{db: db}
}

const serviceColumns = `id, business_id, name, description, price, duration_minutes, category, active, created_at, updated_at`

func scanService(row pgx.Row) (*models.Service, error) {
	s := &models.Service{}
	err := row.Scan(&s.ID, &s.BusinessID, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.Category, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *serviceRepo) Create(ctx context.Context, service *models.Service) error {
	query := `
		INSERT INTO services (id, business_id, name, description, price, duration_minutes, category, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, service.ID, service.BusinessID, service.Name, service.Description,
		service.Price, service.DurationMinutes, service.Category, service.Active).
		Scan(&service.CreatedAt, &service.UpdatedAt)
}

func (r *serviceRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE business_id = $1 AND id = $2`
	return scanService(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *serviceRepo) List(ctx context.Context, businessID uuid.UUID, active *bool, limit, offset int) ([]*models.Service, error) {
	q := tenantScope("business_id", businessID)
	if active != nil {
		q.and("active = ?", *active)
	}
	query := `SELECT ` + serviceColumns + ` FROM services` + q.where() + ` ORDER BY category ASC, name ASC` + q.page(limit, offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []*models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *serviceRepo) Update(ctx context.Context, service *models.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, price = $3, duration_minutes = $4, category = $5, active = $6, updated_at = NOW()
		WHERE business_id = $7 AND id = $8
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, service.Name, service.Description, service.Price, service.DurationMinutes,
		service.Category, service.Active, service.BusinessID, service.ID).Scan(&service.UpdatedAt)
}

func (r *serviceRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM services WHERE business_id = $1 AND id = $2`, businessID, id))
}
