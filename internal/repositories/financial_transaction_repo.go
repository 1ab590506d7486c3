package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FinancialTransactionRepository interface {
	Create(ctx context.Context, txn *models.FinancialTransaction) error
	List(ctx context.Context, businessID uuid.UUID, filter models.TransactionFilter) ([]*models.FinancialTransaction, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.FinancialSummary, error)
}

type financialTransactionRepo struct {
	db DBTX
}

func NewFinancialTransactionRepo(db DBTX) FinancialTransactionRepository {
	return &financialTransactionRepo{db: db}
}

const transactionColumns = `id, business_id, type, category, amount, description, appointment_id, occurred_at, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.FinancialTransaction, error) {
	t := &models.FinancialTransaction{}
	err := row.Scan(&t.ID, &t.BusinessID, &t.Type, &t.Category, &t.Amount, &t.Description, &t.AppointmentID, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *financialTransactionRepo) Create(ctx context.Context, txn *models.FinancialTransaction) error {
	query := `
		INSERT INTO financial_transactions (id, business_id, type, category, amount, description, appointment_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, txn.ID, txn.BusinessID, txn.Type, txn.Category, txn.Amount,
		txn.Description, txn.AppointmentID, txn.OccurredAt).
		Scan(&txn.CreatedAt, &txn.UpdatedAt)
}

func periodScope(column string, businessID uuid.UUID, dateColumn string, from, to *time.Time) *scopedQuery {
	q := tenantScope(column, businessID)
	if from != nil {
		q.and(dateColumn+" >= ?", *from)
	}
	if to != nil {
		q.and(dateColumn+" < ?", *to)
	}
	return q
}

func (r *financialTransactionRepo) List(ctx context.Context, businessID uuid.UUID, filter models.TransactionFilter) ([]*models.FinancialTransaction, error) {
	q := periodScope("business_id", businessID, "occurred_at", filter.From, filter.To)
	if filter.Type != "" {
		q.and("type = ?", filter.Type)
	}
	query := `SELECT ` + transactionColumns + ` FROM financial_transactions` + q.where() + ` ORDER BY occurred_at DESC, id ASC` + q.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []*models.FinancialTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *financialTransactionRepo) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.FinancialSummary, error) {
	q := periodScope("business_id", businessID, "occurred_at", from, to)
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM financial_transactions` + q.where()

	s := &models.FinancialSummary{}
	if err := r.db.QueryRow(ctx, query, q.args...).Scan(&s.Income, &s.Expense); err != nil {
		return nil, err
	}
	s.Balance = s.Income - s.Expense
	return s, nil
}
