package services

import (
	"context"
	"fmt"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const metricsCacheTTL = 60 * time.Second

// MetricsService builds the dashboard summary of a business.
type MetricsService interface {
	Dashboard(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.DashboardMetrics, error)
}

type metricsService struct {
	store    *repositories.Store
	cacheSvc caching.CacheService
	logger   *zap.Logger
	now      func() time.Time
}

func NewMetricsService(store *repositories.Store, cacheSvc caching.CacheService, logger *zap.Logger) MetricsService {
	return &metricsService{store: store, cacheSvc: cacheSvc, logger: logger, now: time.Now}
}

// period defaults to the last 30 days ending now. Bounds are truncated to
// the minute so repeated dashboard loads share a cache entry.
func (s *metricsService) period(from, to *time.Time) (time.Time, time.Time, error) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = from.UTC()
	}
	start, end = start.Truncate(time.Minute), end.Truncate(time.Minute)
	if err := common.ValidateDateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (s *metricsService) Dashboard(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*models.DashboardMetrics, error) {
	start, end, err := s.period(from, to)
	if err != nil {
		return nil, err
	}

	cacheKey := caching.MetricsKey(businessID, start, end)
	cached := &models.DashboardMetrics{}
	if ok, err := s.cacheSvc.GetJSON(ctx, cacheKey, cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("metrics cache read failed", zap.Error(err))
	}

	m := &models.DashboardMetrics{From: start, To: end}

	m.AppointmentsByStatus, err = s.store.Appointments.CountByStatus(ctx, businessID, start, end)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	for _, status := range []string{models.AppointmentScheduled, models.AppointmentConfirmed, models.AppointmentCompleted, models.AppointmentCancelled} {
		m.TotalAppointments += m.AppointmentsByStatus[status]
		if _, ok := m.AppointmentsByStatus[status]; !ok {
			m.AppointmentsByStatus[status] = 0
		}
	}

	finance, err := s.store.Transactions.Summary(ctx, businessID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("financial summary: %w", err)
	}
	m.Revenue, m.Expenses = finance.Income, finance.Expense

	if m.NewCustomers, err = s.store.Customers.CountCreatedBetween(ctx, businessID, start, end); err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	reviews, err := s.store.Reviews.Summary(ctx, businessID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	m.AverageRating = roundCurrency(reviews.Average)
	m.ReviewCount = reviews.Count

	if m.PendingCommissions, err = s.store.Commissions.PendingTotal(ctx, businessID); err != nil {
		return nil, fmt.Errorf("pending commissions: %w", err)
	}

	if m.APIRequests, err = s.store.Usage.Total(ctx, businessID, start, end); err != nil {
		return nil, fmt.Errorf("api usage: %w", err)
	}
	if m.APIRequestsToday, err = s.cacheSvc.GetUsage(ctx, businessID, s.now()); err != nil {
		s.logger.Warn("usage counter read failed", zap.Error(err))
	}

	if err := s.cacheSvc.SetJSON(ctx, cacheKey, m, metricsCacheTTL); err != nil {
		s.logger.Warn("metrics cache write failed", zap.Error(err))
	}
	return m, nil
}
