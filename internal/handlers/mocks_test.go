package handlers

import (
	"context"
	"errors"
	"time"

	"gestly/internal/models"
	"gestly/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Each mock embeds its service interface; calling a method that is not
// overridden panics, which fails the test that reached it.

type MockAuthService struct {
	services.AuthService
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req services.RegisterRequest) (*services.RegisterResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RegisterResponse), args.Error(1)
}

type MockCustomerService struct {
	services.CustomerService
	mock.Mock
}

func (m *MockCustomerService) List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	args := m.Called(ctx, businessID, search, limit, offset)
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Create(ctx context.Context, businessID uuid.UUID, req services.CustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, businessID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type MockAppointmentService struct {
	services.AppointmentService
	mock.Mock
}

func (m *MockAppointmentService) List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, businessID, filter)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Create(ctx context.Context, businessID uuid.UUID, req services.CreateAppointmentRequest) (*models.Appointment, error) {
	args := m.Called(ctx, businessID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentService) ChangeStatus(ctx context.Context, businessID, id uuid.UUID, status string) (*models.Appointment, error) {
	args := m.Called(ctx, businessID, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

type MockAPIKeyService struct {
	services.APIKeyService
	mock.Mock
}

func (m *MockAPIKeyService) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	args := m.Called(ctx, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

type MockReportService struct {
	services.ReportService
	mock.Mock
}

func (m *MockReportService) Render(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*services.RenderedReport, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenderedReport), args.Error(1)
}

func (m *MockReportService) Export(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*services.ReportExport, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportExport), args.Error(1)
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

var errDown = errors.New("connection refused")
