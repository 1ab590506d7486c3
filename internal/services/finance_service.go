package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommissionService manages professional commissions generated by
// completed appointments.
type CommissionService interface {
	List(ctx context.Context, businessID uuid.UUID, filter models.CommissionFilter) ([]*models.Commission, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) ([]*models.CommissionSummary, error)
	MarkPaid(ctx context.Context, businessID, id uuid.UUID) (*models.Commission, error)
}

type FinanceService interface {
	List(ctx context.Context, businessID uuid.UUID, filter models.TransactionFilter) ([]*models.FinancialTransaction, error)
	Create(ctx context.Context, businessID uuid.UUID, req TransactionRequest) (*models.FinancialTransaction, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.FinancialSummary, error)
}

type TransactionRequest struct {
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

type commissionService struct {
	commissions repositories.CommissionRepository
	metrics     MetricsInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

func NewCommissionService(commissions repositories.CommissionRepository, metrics MetricsInvalidator, logger *zap.Logger) CommissionService {
	return &commissionService{commissions: commissions, metrics: metrics, logger: logger, now: time.Now}
}

func validatePeriod(from, to *time.Time) error {
	if from != nil && to != nil {
		return common.ValidateDateRange(*from, *to)
	}
	return nil
}

func (s *commissionService) List(ctx context.Context, businessID uuid.UUID, filter models.CommissionFilter) ([]*models.Commission, error) {
	if filter.Status != "" && filter.Status != models.CommissionPending && filter.Status != models.CommissionPaid {
		return nil, common.FieldError("status", "Status inválido")
	}
	if err := validatePeriod(filter.From, filter.To); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	commissions, err := s.commissions.List(ctx, businessID, filter)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	return commissions, nil
}

func (s *commissionService) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) ([]*models.CommissionSummary, error) {
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}
	summary, err := s.commissions.Summary(ctx, businessID, from, to)
	if err != nil {
		return nil, fmt.Errorf("commission summary: %w", err)
	}
	return summary, nil
}

// MarkPaid settles a commission. Paying an already paid commission keeps the
// original paid_at.
func (s *commissionService) MarkPaid(ctx context.Context, businessID, id uuid.UUID) (*models.Commission, error) {
	commission, err := s.commissions.MarkPaid(ctx, businessID, id, s.now().UTC())
	if err != nil {
		return nil, notFoundOr(err, msgCommissionNotFound, "mark commission paid")
	}
	invalidateMetrics(ctx, s.metrics, businessID, s.logger)
	return commission, nil
}

type financeService struct {
	transactions repositories.FinancialTransactionRepository
	metrics      MetricsInvalidator
	logger       *zap.Logger
	now          func() time.Time
}

func NewFinanceService(transactions repositories.FinancialTransactionRepository, metrics MetricsInvalidator, logger *zap.Logger) FinanceService {
	return &financeService{transactions: transactions, metrics: metrics, logger: logger, now: time.Now}
}

func (s *financeService) List(ctx context.Context, businessID uuid.UUID, filter models.TransactionFilter) ([]*models.FinancialTransaction, error) {
	if filter.Type != "" && filter.Type != models.TransactionIncome && filter.Type != models.TransactionExpense {
		return nil, common.FieldError("type", "Tipo inválido")
	}
	if err := validatePeriod(filter.From, filter.To); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	txns, err := s.transactions.List(ctx, businessID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func (s *financeService) Create(ctx context.Context, businessID uuid.UUID, req TransactionRequest) (*models.FinancialTransaction, error) {
	details := map[string]string{}
	if req.Type != models.TransactionIncome && req.Type != models.TransactionExpense {
		details["type"] = "Tipo deve ser income ou expense"
	}
	if req.Amount <= 0 {
		details["amount"] = "Valor deve ser maior que zero"
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		details["category"] = "Categoria é obrigatória"
	}
	if len(details) > 0 {
		return nil, common.ValidationError("Dados inválidos", details)
	}

	occurredAt := s.now().UTC()
	if req.OccurredAt != nil && !req.OccurredAt.IsZero() {
		occurredAt = req.OccurredAt.UTC()
	}
	txn := &models.FinancialTransaction{
		ID:          uuid.New(),
		BusinessID:  businessID,
		Type:        req.Type,
		Category:    category,
		Amount:      roundCurrency(req.Amount),
		Description: strings.TrimSpace(req.Description),
		OccurredAt:  occurredAt,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	invalidateMetrics(ctx, s.metrics, businessID, s.logger)
	return txn, nil
}

func (s *financeService) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.FinancialSummary, error) {
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}
	summary, err := s.transactions.Summary(ctx, businessID, from, to)
	if err != nil {
		return nil, fmt.Errorf("financial summary: %w", err)
	}
	return summary, nil
}
