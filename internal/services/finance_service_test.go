package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"
	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seededMetrics returns a cache holding one metrics entry for businessID.
func seededMetrics(t *testing.T, businessID uuid.UUID) (caching.CacheService, string) {
	t.Helper()
	cache := caching.NewMemoryCacheService()
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	key := caching.MetricsKey(businessID, to.AddDate(0, -1, 0), to)
	require.NoError(t, cache.SetJSON(context.Background(), key, 1, time.Hour))
	return cache, key
}

func cached(t *testing.T, cache caching.CacheService, key string) bool {
	t.Helper()
	var v int
	found, err := cache.GetJSON(context.Background(), key, &v)
	require.NoError(t, err)
	return found
}

func TestCommissionService_MarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	businessID, id := uuid.New(), uuid.New()
	firstPaid := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := firstPaid.Add(48 * time.Hour)
	paid := &models.Commission{ID: id, BusinessID: businessID, Status: models.CommissionPaid, PaidAt: &firstPaid}

	repo := &MockCommissionRepository{}
	repo.On("MarkPaid", ctx, businessID, id, firstPaid).Return(paid, nil).Once()
	repo.On("MarkPaid", ctx, businessID, id, later).Return(paid, nil).Once()

	svc := NewCommissionService(repo, nil, zap.NewNop()).(*commissionService)
	svc.now = func() time.Time { return firstPaid }
	first, err := svc.MarkPaid(ctx, businessID, id)
	require.NoError(t, err)

	svc.now = func() time.Time { return later }
	second, err := svc.MarkPaid(ctx, businessID, id)
	require.NoError(t, err)

	assert.Equal(t, models.CommissionPaid, second.Status)
	assert.Equal(t, *first.PaidAt, *second.PaidAt)
	repo.AssertExpectations(t)
}

func TestCommissionService_MarkPaidInvalidatesMetrics(t *testing.T) {
	ctx := context.Background()
	businessID, id := uuid.New(), uuid.New()
	cache, key := seededMetrics(t, businessID)

	repo := &MockCommissionRepository{}
	repo.On("MarkPaid", ctx, businessID, id, mock.Anything).
		Return(&models.Commission{ID: id, BusinessID: businessID, Status: models.CommissionPaid}, nil).Once()

	_, err := NewCommissionService(repo, cache, zap.NewNop()).MarkPaid(ctx, businessID, id)
	require.NoError(t, err)
	assert.False(t, cached(t, cache, key))
}

func TestCommissionService_MarkPaidMissing(t *testing.T) {
	ctx := context.Background()
	businessID, id := uuid.New(), uuid.New()
	cache, key := seededMetrics(t, businessID)

	repo := &MockCommissionRepository{}
	repo.On("MarkPaid", ctx, businessID, id, mock.Anything).Return(nil, pgx.ErrNoRows).Once()

	_, err := NewCommissionService(repo, cache, zap.NewNop()).MarkPaid(ctx, businessID, id)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.True(t, cached(t, cache, key))
}

func TestCommissionService_ListValidation(t *testing.T) {
	from := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	tests := []struct {
		name   string
		filter models.CommissionFilter
	}{
		{name: "unknown status", filter: models.CommissionFilter{Status: "overdue"}},
		{name: "inverted period", filter: models.CommissionFilter{From: &from, To: &to}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockCommissionRepository{}
			_, err := NewCommissionService(repo, nil, zap.NewNop()).List(context.Background(), uuid.New(), tt.filter)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
			repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFinanceService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   TransactionRequest
		field string
	}{
		{name: "unknown type", req: TransactionRequest{Type: "transfer", Category: "Aluguel", Amount: 10}, field: "type"},
		{name: "zero amount", req: TransactionRequest{Type: models.TransactionExpense, Category: "Aluguel"}, field: "amount"},
		{name: "negative amount", req: TransactionRequest{Type: models.TransactionIncome, Category: "Venda", Amount: -5}, field: "amount"},
		{name: "blank category", req: TransactionRequest{Type: models.TransactionIncome, Category: "  ", Amount: 5}, field: "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTransactionRepository{}
			_, err := NewFinanceService(repo, nil, zap.NewNop()).Create(context.Background(), uuid.New(), tt.req)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Details, tt.field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestFinanceService_CreateInvalidatesMetrics(t *testing.T) {
	ctx := context.Background()
	businessID := uuid.New()
	cache, key := seededMetrics(t, businessID)
	occurred := time.Date(2026, 3, 5, 15, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	repo := &MockTransactionRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*models.FinancialTransaction")).Return(nil).Once()

	txn, err := NewFinanceService(repo, cache, zap.NewNop()).Create(ctx, businessID, TransactionRequest{
		Type:       models.TransactionExpense,
		Category:   " Aluguel ",
		Amount:     1200.456,
		OccurredAt: &occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, "Aluguel", txn.Category)
	assert.Equal(t, 1200.46, txn.Amount)
	assert.Equal(t, time.UTC, txn.OccurredAt.Location())
	assert.False(t, cached(t, cache, key))
	repo.AssertExpectations(t)
}

func TestFinanceService_CreateFailureKeepsMetrics(t *testing.T) {
	ctx := context.Background()
	businessID := uuid.New()
	cache, key := seededMetrics(t, businessID)

	repo := &MockTransactionRepository{}
	repo.On("Create", ctx, mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := NewFinanceService(repo, cache, zap.NewNop()).Create(ctx, businessID, TransactionRequest{
		Type: models.TransactionIncome, Category: "Venda", Amount: 10,
	})
	assert.ErrorContains(t, err, "create transaction")
	assert.True(t, cached(t, cache, key))
}
