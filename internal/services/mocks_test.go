package services

import (
	"context"
	"time"

	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// fakeTx runs fn against a fixed Store of mocks instead of a database transaction.
type fakeTx struct {
	store *repositories.Store
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(tx *repositories.Store) error) error {
	f.calls++
	return fn(f.store)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, businessID uuid.UUID, role string, limit, offset int) ([]*models.Profile, error) {
	args := m.Called(ctx, businessID, role, limit, offset)
	return args.Get(0).([]*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetBusinessIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *models.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *MockBusinessRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Record(ctx context.Context, businessID uuid.UUID, day time.Time, requests int64) error {
	args := m.Called(ctx, businessID, day, requests)
	return args.Error(0)
}

func (m *MockUsageRepository) Total(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, businessID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	args := m.Called(ctx, businessID, search, limit, offset)
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) RecordVisit(ctx context.Context, businessID, id uuid.UUID, amount float64, at time.Time) error {
	args := m.Called(ctx, businessID, id, amount, at)
	return args.Error(0)
}

func (m *MockCustomerRepository) AddPoints(ctx context.Context, businessID, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, businessID, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockCustomerRepository) CountCreatedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int, error) {
	args := m.Called(ctx, businessID, from, to)
	return args.Int(0), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context, businessID uuid.UUID, active *bool, limit, offset int) ([]*models.Service, error) {
	args := m.Called(ctx, businessID, active, limit, offset)
	return args.Get(0).([]*models.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, businessID, filter)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, businessID, id uuid.UUID, from, to string, at time.Time) (*models.Appointment, error) {
	args := m.Called(ctx, businessID, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) HasOverlap(ctx context.Context, businessID, professionalID uuid.UUID, startsAt, endsAt time.Time, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, businessID, professionalID, startsAt, endsAt, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) LockProfessional(ctx context.Context, businessID, professionalID uuid.UUID) error {
	args := m.Called(ctx, businessID, professionalID)
	return args.Error(0)
}

func (m *MockAppointmentRepository) CountByStatus(ctx context.Context, businessID uuid.UUID, from, to time.Time) (map[string]int, error) {
	args := m.Called(ctx, businessID, from, to)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockAppointmentRepository) ListDueForReminder(ctx context.Context, from, until time.Time, limit int) ([]*models.Appointment, error) {
	args := m.Called(ctx, from, until, limit)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) MarkReminded(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, businessID, id, at)
	return args.Error(0)
}

type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	args := m.Called(ctx, commission)
	return args.Error(0)
}

func (m *MockCommissionRepository) List(ctx context.Context, businessID uuid.UUID, filter models.CommissionFilter) ([]*models.Commission, error) {
	args := m.Called(ctx, businessID, filter)
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *MockCommissionRepository) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) ([]*models.CommissionSummary, error) {
	args := m.Called(ctx, businessID, from, to)
	return args.Get(0).([]*models.CommissionSummary), args.Error(1)
}

func (m *MockCommissionRepository) MarkPaid(ctx context.Context, businessID, id uuid.UUID, at time.Time) (*models.Commission, error) {
	args := m.Called(ctx, businessID, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commission), args.Error(1)
}

func (m *MockCommissionRepository) PendingTotal(ctx context.Context, businessID uuid.UUID) (float64, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(float64), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.FinancialTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) List(ctx context.Context, businessID uuid.UUID, filter models.TransactionFilter) ([]*models.FinancialTransaction, error) {
	args := m.Called(ctx, businessID, filter)
	return args.Get(0).([]*models.FinancialTransaction), args.Error(1)
}

func (m *MockTransactionRepository) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.FinancialSummary, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinancialSummary), args.Error(1)
}

type MockLoyaltyRepository struct {
	mock.Mock
}

func (m *MockLoyaltyRepository) GetActiveProgram(ctx context.Context, businessID uuid.UUID) (*models.LoyaltyProgram, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoyaltyProgram), args.Error(1)
}

func (m *MockLoyaltyRepository) GetProgram(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyProgram, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoyaltyProgram), args.Error(1)
}

func (m *MockLoyaltyRepository) CreateProgram(ctx context.Context, program *models.LoyaltyProgram) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) UpdateProgram(ctx context.Context, program *models.LoyaltyProgram) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) DeactivatePrograms(ctx context.Context, businessID, keep uuid.UUID) error {
	args := m.Called(ctx, businessID, keep)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]*models.LoyaltyReward, error) {
	args := m.Called(ctx, businessID, activeOnly)
	return args.Get(0).([]*models.LoyaltyReward), args.Error(1)
}

func (m *MockLoyaltyRepository) GetReward(ctx context.Context, businessID, id uuid.UUID) (*models.LoyaltyReward, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoyaltyReward), args.Error(1)
}

func (m *MockLoyaltyRepository) CreateReward(ctx context.Context, reward *models.LoyaltyReward) error {
	args := m.Called(ctx, reward)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) UpdateReward(ctx context.Context, reward *models.LoyaltyReward) error {
	args := m.Called(ctx, reward)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) CreateTransaction(ctx context.Context, txn *models.LoyaltyTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) ListTransactions(ctx context.Context, businessID, customerID uuid.UUID, limit, offset int) ([]*models.LoyaltyTransaction, error) {
	args := m.Called(ctx, businessID, customerID, limit, offset)
	return args.Get(0).([]*models.LoyaltyTransaction), args.Error(1)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	args := m.Called(ctx, businessID, limit, offset)
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *MockReviewRepository) ExistsForAppointment(ctx context.Context, businessID, appointmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, businessID, appointmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) Summary(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.ReviewSummary, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSummary), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	m.Called(ctx, businessID, event, data)
}

func (m *MockEventPublisher) SendTest(ctx context.Context, webhook *models.Webhook) (*models.WebhookDelivery, error) {
	args := m.Called(ctx, webhook)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookDelivery), args.Error(1)
}
