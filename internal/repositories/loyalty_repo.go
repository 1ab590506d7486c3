package repositories

import (
	"context"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LoyaltyRepository interface {
	GetActiveProgram(ctx context.Context, businessID uuid.UUID) (*models.LoyaltyProgram, error)
	GetProgram(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyProgram, error)
	CreateProgram(ctx context.Context, program *models.LoyaltyProgram) error
	UpdateProgram(ctx context.Context, program *models.LoyaltyProgram) error
	// DeactivatePrograms clears the active flag on every program but keep.
	DeactivatePrograms(ctx context.Context, businessID, keep uuid.UUID) error

	ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]*models.LoyaltyReward, error)
	GetReward(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyReward, error)
	CreateReward(ctx context.Context, reward *models.LoyaltyReward) error
	UpdateReward(ctx context.Context, reward *models.LoyaltyReward) error

	CreateTransaction(ctx context.Context, txn *models.LoyaltyTransaction) error
	ListTransactions(ctx context.Context, businessID, customerID uuid.UUID, limit, offset int) ([]*models.LoyaltyTransaction, error)
}

type loyaltyRepo struct {
	db DBTX
}

func NewLoyaltyRepo(db DBTX) LoyaltyRepository {
	return &loyaltyRepo{db: db}
}

const (
	programColumns    = `id, business_id, name, points_per_currency, active, created_at, updated_at`
	rewardColumns     = `id, business_id, program_id, name, points_required, active, created_at, updated_at`
	loyaltyTxnColumns = `id, business_id, customer_id, points, reason, appointment_id, reward_id, created_at`
)

func scanProgram(row pgx.Row) (*models.LoyaltyProgram, error) {
	p := &models.LoyaltyProgram{}
	if err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.PointsPerCurrency, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func scanReward(row pgx.Row) (*models.LoyaltyReward, error) {
	rw := &models.LoyaltyReward{}
	if err := row.Scan(&rw.ID, &rw.BusinessID, &rw.ProgramID, &rw.Name, &rw.PointsRequired, &rw.Active, &rw.CreatedAt, &rw.UpdatedAt); err != nil {
		return nil, err
	}
	return rw, nil
}

func (r *loyaltyRepo) GetActiveProgram(ctx context.Context, businessID uuid.UUID) (*models.LoyaltyProgram, error) {
	query := `SELECT ` + programColumns + ` FROM loyalty_programs WHERE business_id = $1 AND active`
	return scanProgram(r.db.QueryRow(ctx, query, businessID))
}

func (r *loyaltyRepo) GetProgram(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyProgram, error) {
	query := `SELECT ` + programColumns + ` FROM loyalty_programs WHERE business_id = $1 AND id = $2`
	return scanProgram(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *loyaltyRepo) CreateProgram(ctx context.Context, program *models.LoyaltyProgram) error {
	query := `
		INSERT INTO loyalty_programs (id, business_id, name, points_per_currency, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, program.ID, program.BusinessID, program.Name, program.PointsPerCurrency, program.Active).
		Scan(&program.CreatedAt, &program.UpdatedAt)
}

func (r *loyaltyRepo) UpdateProgram(ctx context.Context, program *models.LoyaltyProgram) error {
	query := `
		UPDATE loyalty_programs
		SET name = $1, points_per_currency = $2, active = $3, updated_at = NOW()
		WHERE business_id = $4 AND id = $5
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, program.Name, program.PointsPerCurrency, program.Active, program.BusinessID, program.ID).
		Scan(&program.UpdatedAt)
}

func (r *loyaltyRepo) DeactivatePrograms(ctx context.Context, businessID, keep uuid.UUID) error {
	query := `UPDATE loyalty_programs SET active = FALSE, updated_at = NOW() WHERE business_id = $1 AND id <> $2 AND active`
	_, err := r.db.Exec(ctx, query, businessID, keep)
	return err
}

func (r *loyaltyRepo) ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]*models.LoyaltyReward, error) {
	q := tenantScope("business_id", businessID)
	if activeOnly {
		q.and("active = ?", true)
	}
	query := `SELECT ` + rewardColumns + ` FROM loyalty_rewards` + q.where() + ` ORDER BY points_required ASC`

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := []*models.LoyaltyReward{}
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (r *loyaltyRepo) GetReward(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyReward, error) {
	query := `SELECT ` + rewardColumns + ` FROM loyalty_rewards WHERE business_id = $1 AND id = $2`
	return scanReward(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *loyaltyRepo) CreateReward(ctx context.Context, reward *models.LoyaltyReward) error {
	query := `
		INSERT INTO loyalty_rewards (id, business_id, program_id, name, points_required, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, reward.ID, reward.BusinessID, reward.ProgramID, reward.Name, reward.PointsRequired, reward.Active).
		Scan(&reward.CreatedAt, &reward.UpdatedAt)
}

func (r *loyaltyRepo) UpdateReward(ctx context.Context, reward *models.LoyaltyReward) error {
	query := `
		UPDATE loyalty_rewards
		SET name = $1, points_required = $2, active = $3, updated_at = NOW()
		WHERE business_id = $4 AND id = $5
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, reward.Name, reward.PointsRequired, reward.Active, reward.BusinessID, reward.ID).
		Scan(&reward.UpdatedAt)
}

func (r *loyaltyRepo) CreateTransaction(ctx context.Context, txn *models.LoyaltyTransaction) error {
	query := `
		INSERT INTO loyalty_transactions (id, business_id, customer_id, points, reason, appointment_id, reward_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, txn.ID, txn.BusinessID, txn.CustomerID, txn.Points, txn.Reason, txn.AppointmentID, txn.RewardID).
		Scan(&txn.CreatedAt)
}

func (r *loyaltyRepo) ListTransactions(ctx context.Context, businessID, customerID uuid.UUID, limit, offset int) ([]*models.LoyaltyTransaction, error) {
	q := tenantScope("business_id", businessID).and("customer_id = ?", customerID)
	query := `SELECT ` + loyaltyTxnColumns + ` FROM loyalty_transactions` + q.where() + ` ORDER BY created_at DESC` + q.page(limit, offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []*models.LoyaltyTransaction{}
	for rows.Next() {
		t := &models.LoyaltyTransaction{}
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.CustomerID, &t.Points, &t.Reason, &t.AppointmentID, &t.RewardID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
