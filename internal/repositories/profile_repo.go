package repositories

import (
	"context"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Profile, error)
	// GetByEmail is global: emails are unique across businesses.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, businessID uuid.UUID, role string, limit, offset int) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	GetBusinessIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type profileRepo struct {
	db DBTX
}

func NewProfileRepo(db DBTX) ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `id, business_id, email, password_hash, full_name, role, commission_rate, active, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.BusinessID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role, &p.CommissionRate, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, business_id, email, password_hash, full_name, role, commission_rate, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, profile.ID, profile.BusinessID, profile.Email, profile.PasswordHash,
		profile.FullName, profile.Role, profile.CommissionRate, profile.Active).
		Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE business_id = $1 AND id = $2`
	return scanProfile(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(r.db.QueryRow(ctx, query, email))
}

func (r *profileRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *profileRepo) List(ctx context.Context, businessID uuid.UUID, role string, limit, offset int) ([]*models.Profile, error) {
	q := tenantScope("business_id", businessID)
	if role != "" {
		q.and("role = ?", role)
	}
	query := `SELECT ` + profileColumns + ` FROM profiles` + q.where() + ` ORDER BY full_name ASC`
	query += q.page(limit, offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, role = $2, commission_rate = $3, active = $4, updated_at = NOW()
		WHERE business_id = $5 AND id = $6
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, profile.FullName, profile.Role, profile.CommissionRate, profile.Active, profile.BusinessID, profile.ID).
		Scan(&profile.UpdatedAt)
}

func (r *profileRepo) GetBusinessIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var businessID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT business_id FROM profiles WHERE id = $1 AND active`, userID).Scan(&businessID)
	if err != nil {
		return uuid.Nil, err
	}
	return businessID, nil
}
