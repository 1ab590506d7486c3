package repositories

import (
	"context"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	// GetActiveByHash resolves a key across businesses; revoked keys are excluded.
	GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	List(ctx context.Context, businessID uuid.UUID) ([]*models.APIKey, error)
	Revoke(ctx context.Context, businessID, id uuid.UUID) (*models.APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

type apiKeyRepo struct {
	db DBTX
}

func NewAPIKeyRepo(db DBTX) APIKeyRepository {
	return &apiKeyRepo{db: db}
}

const apiKeyColumns = `id, business_id, name, prefix, key_hash, last_used_at, revoked_at, created_at`

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	k := &models.APIKey{}
	if err := row.Scan(&k.ID, &k.BusinessID, &k.Name, &k.Prefix, &k.KeyHash, &k.LastUsedAt, &k.RevokedAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	return k, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (id, business_id, name, prefix, key_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, key.ID, key.BusinessID, key.Name, key.Prefix, key.KeyHash).Scan(&key.CreatedAt)
}

func (r *apiKeyRepo) GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`
	return scanAPIKey(r.db.QueryRow(ctx, query, keyHash))
}

func (r *apiKeyRepo) List(ctx context.Context, businessID uuid.UUID) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE business_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepo) Revoke(ctx context.Context, businessID, id uuid.UUID) (*models.APIKey, error) {
	query := `
		UPDATE api_keys SET revoked_at = COALESCE(revoked_at, NOW())
		WHERE business_id = $1 AND id = $2
		RETURNING ` + apiKeyColumns
	return scanAPIKey(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *apiKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}
