package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockReportStorage struct {
	mock.Mock
}

func (m *MockReportStorage) Upload(ctx context.Context, objectName, contentType string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, objectName, contentType, reader, objectSize)
	return args.Error(0)
}

func (m *MockReportStorage) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockReportStorage) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockReportStorage) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newReportStore(businessID uuid.UUID) *repositories.Store {
	businesses := &MockBusinessRepository{}
	transactions := &MockTransactionRepository{}
	commissions := &MockCommissionRepository{}

	businesses.On("GetByID", mock.Anything, businessID).Return(&models.Business{ID: businessID, Name: "Barbearia São João"}, nil)
	transactions.On("Summary", mock.Anything, businessID, mock.Anything, mock.Anything).
		Return(&models.FinancialSummary{Income: 300, Expense: 50, Balance: 250}, nil)
	transactions.On("List", mock.Anything, businessID, mock.Anything).Return([]*models.FinancialTransaction{
		{Type: models.TransactionIncome, Category: "Atendimento", Amount: 300, Description: "Corte e barba", OccurredAt: time.Now()},
		{Type: models.TransactionExpense, Category: "Produtos", Amount: 50, Description: "Pomada", OccurredAt: time.Now()},
	}, nil)
	commissions.On("Summary", mock.Anything, businessID, mock.Anything, mock.Anything).
		Return([]*models.CommissionSummary{{FullName: "João", Pending: 30, Paid: 90}}, nil)

	return &repositories.Store{Businesses: businesses, Transactions: transactions, Commissions: commissions}
}

func TestReportService_Render(t *testing.T) {
	businessID := uuid.New()
	svc := NewReportService(newReportStore(businessID), nil, zap.NewNop())

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.Render(context.Background(), businessID, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, "relatorio-financeiro-20260101-20260131.pdf", report.FileName)
	assert.True(t, bytes.HasPrefix(report.Content, []byte("%PDF")))
}

func TestReportService_ExportWithoutStorage(t *testing.T) {
	svc := NewReportService(newReportStore(uuid.New()), nil, zap.NewNop())

	_, err := svc.Export(context.Background(), uuid.New(), nil, nil)
	assert.True(t, errors.Is(err, ErrStorageDisabled))
}

func TestReportService_Export(t *testing.T) {
	businessID := uuid.New()
	storage := &MockReportStorage{}
	storage.On("Upload", mock.Anything, mock.AnythingOfType("string"), reportContentType, mock.Anything, mock.AnythingOfType("int64")).Return(nil).Once()
	storage.On("GetPresignedURL", mock.Anything, mock.AnythingOfType("string"), reportLinkTTL).Return("https://minio.local/report.pdf?sig=1", nil).Once()
	svc := NewReportService(newReportStore(businessID), storage, zap.NewNop())

	export, err := svc.Export(context.Background(), businessID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/report.pdf?sig=1", export.URL)
	assert.Contains(t, export.ObjectName, businessID.String()+"/")
	storage.AssertExpectations(t)
}

func TestReportService_Upload_Error(t *testing.T) {
	businessID := uuid.New()
	storage := &MockReportStorage{}
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing")).Once()
	svc := NewReportService(newReportStore(businessID), storage, zap.NewNop())

	_, err := svc.Export(context.Background(), businessID, nil, nil)
	assert.ErrorContains(t, err, "bucket missing")
	storage.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_PresignFailureRemovesUpload(t *testing.T) {
	businessID := uuid.New()
	storage := &MockReportStorage{}
	var uploaded string
	storage.On("Upload", mock.Anything, mock.AnythingOfType("string"), reportContentType, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploaded = args.String(1) }).Return(nil).Once()
	storage.On("GetPresignedURL", mock.Anything, mock.Anything, reportLinkTTL).Return("", errors.New("signature expired")).Once()
	storage.On("Delete", mock.Anything, mock.MatchedBy(func(name string) bool { return name == uploaded })).Return(nil).Once()
	svc := NewReportService(newReportStore(businessID), storage, zap.NewNop())

	_, err := svc.Export(context.Background(), businessID, nil, nil)

	assert.ErrorContains(t, err, "presign report")
	storage.AssertExpectations(t)
}
