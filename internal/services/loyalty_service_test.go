package services

import (
	"context"
	"net/http"
	"testing"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLoyaltyFixture(t *testing.T) (*MockLoyaltyRepository, *MockCustomerRepository, *MockEventPublisher, *fakeTx, LoyaltyService) {
	loyalty := &MockLoyaltyRepository{}
	customers := &MockCustomerRepository{}
	events := &MockEventPublisher{}
	loyalty.Test(t)
	customers.Test(t)
	events.Test(t)
	store := &repositories.Store{Loyalty: loyalty, Customers: customers}
	tx := &fakeTx{store: store}
	return loyalty, customers, events, tx, NewLoyaltyService(store, tx, events)
}

func TestLoyaltyService_CreateProgramDeactivatesOthers(t *testing.T) {
	loyalty, _, _, tx, svc := newLoyaltyFixture(t)
	ctx := context.Background()
	businessID := uuid.New()

	loyalty.On("CreateProgram", ctx, mock.AnythingOfType("*models.LoyaltyProgram")).Return(nil).Once()
	loyalty.On("DeactivatePrograms", ctx, businessID, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

	program, err := svc.CreateProgram(ctx, businessID, ProgramRequest{Name: "Clube", PointsPerCurrency: 1})
	require.NoError(t, err)
	assert.True(t, program.Active)
	assert.Equal(t, 1, tx.calls)
	loyalty.AssertExpectations(t)
}

func TestLoyaltyService_CreateProgramValidation(t *testing.T) {
	_, _, _, tx, svc := newLoyaltyFixture(t)

	_, err := svc.CreateProgram(context.Background(), uuid.New(), ProgramRequest{})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "points_per_currency")
	assert.Equal(t, 0, tx.calls)
}

func TestLoyaltyService_RedeemInsufficientPoints(t *testing.T) {
	loyalty, customers, events, _, svc := newLoyaltyFixture(t)
	ctx := context.Background()
	businessID, customerID, rewardID := uuid.New(), uuid.New(), uuid.New()

	loyalty.On("GetReward", ctx, businessID, rewardID).
		Return(&models.LoyaltyReward{ID: rewardID, Name: "Corte grátis", PointsRequired: 100, Active: true}, nil).Once()
	customers.On("GetByID", ctx, businessID, customerID).Return(&models.Customer{ID: customerID, LoyaltyPoints: 40}, nil).Once()
	customers.On("AddPoints", ctx, businessID, customerID, -100).Return(0, pgx.ErrNoRows).Once()

	_, err := svc.Redeem(ctx, businessID, customerID, rewardID)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, msgInsufficientPoints, appErr.Message)
	loyalty.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoyaltyService_Redeem(t *testing.T) {
	loyalty, customers, events, _, svc := newLoyaltyFixture(t)
	ctx := context.Background()
	businessID, customerID, rewardID := uuid.New(), uuid.New(), uuid.New()

	loyalty.On("GetReward", ctx, businessID, rewardID).
		Return(&models.LoyaltyReward{ID: rewardID, Name: "Corte grátis", PointsRequired: 100, Active: true}, nil).Once()
	customers.On("GetByID", ctx, businessID, customerID).Return(&models.Customer{ID: customerID, LoyaltyPoints: 150}, nil).Once()
	customers.On("AddPoints", ctx, businessID, customerID, -100).Return(50, nil).Once()
	loyalty.On("CreateTransaction", ctx, mock.AnythingOfType("*models.LoyaltyTransaction")).Return(nil).Once()
	events.On("Publish", ctx, businessID, models.EventLoyaltyRewardRedeemed, mock.Anything).Return().Once()

	balance, err := svc.Redeem(ctx, businessID, customerID, rewardID)
	require.NoError(t, err)
	assert.Equal(t, 50, balance.Points)
	require.Len(t, balance.Transactions, 1)
	assert.Equal(t, -100, balance.Transactions[0].Points)
	events.AssertExpectations(t)
}

func TestLoyaltyService_BalanceUnknownCustomer(t *testing.T) {
	_, customers, _, _, svc := newLoyaltyFixture(t)
	ctx := context.Background()
	businessID, customerID := uuid.New(), uuid.New()
	customers.On("GetByID", ctx, businessID, customerID).Return(nil, pgx.ErrNoRows).Once()

	_, err := svc.Balance(ctx, businessID, customerID, 0, 0)
	assert.True(t, common.IsNotFound(err))
}
