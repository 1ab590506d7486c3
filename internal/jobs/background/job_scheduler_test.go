package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"gestly/internal/caching"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAppointments struct {
	repositories.AppointmentRepository
	mock.Mock
}

func (m *mockAppointments) ListDueForReminder(ctx context.Context, from, until time.Time, limit int) ([]*models.Appointment, error) {
	args := m.Called(ctx, from, until, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *mockAppointments) MarkReminded(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, businessID, id, at).Error(0)
}

type publishedEvent struct {
	businessID uuid.UUID
	event      string
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	p.events = append(p.events, publishedEvent{businessID: businessID, event: event})
}

func (p *recordingPublisher) SendTest(ctx context.Context, webhook *models.Webhook) (*models.WebhookDelivery, error) {
	return nil, nil
}

type countingRetrier struct {
	n   int
	err error
}

func (r *countingRetrier) RetryDue(ctx context.Context) (int, error) {
	return r.n, r.err
}

type staticBusinesses struct {
	repositories.BusinessRepository
	ids []uuid.UUID
	err error
}

func (b *staticBusinesses) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return b.ids, b.err
}

type usageRecord struct {
	businessID uuid.UUID
	day        string
	requests   int64
}

type memUsage struct {
	records []usageRecord
	err     error
}

func (m *memUsage) Record(ctx context.Context, businessID uuid.UUID, day time.Time, requests int64) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, usageRecord{businessID: businessID, day: day.Format("2006-01-02"), requests: requests})
	return nil
}

func (m *memUsage) Total(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int64, error) {
	return 0, nil
}

func newScheduler(t *testing.T, retrier WebhookRetrier, appointments repositories.AppointmentRepository, events *recordingPublisher) *JobScheduler {
	t.Helper()
	return newSchedulerWithUsage(t, retrier, appointments, events, nil)
}

func newSchedulerWithUsage(t *testing.T, retrier WebhookRetrier, appointments repositories.AppointmentRepository,
	events *recordingPublisher, usage *UsageFlush) *JobScheduler {
	t.Helper()
	js, err := NewJobScheduler(retrier, appointments, events, usage, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Stop() })
	return js
}

func TestRegistersOnlyConfiguredJobs(t *testing.T) {
	js := newScheduler(t, &countingRetrier{}, nil, &recordingPublisher{})
	assert.ElementsMatch(t, []string{"webhook-retry"}, js.JobNames())

	js = newScheduler(t, &countingRetrier{}, &mockAppointments{}, &recordingPublisher{})
	assert.ElementsMatch(t, []string{"webhook-retry", "appointment-reminders"}, js.JobNames())

	js = newSchedulerWithUsage(t, nil, nil, &recordingPublisher{}, &UsageFlush{})
	assert.ElementsMatch(t, []string{"usage-flush"}, js.JobNames())
}

func TestSendRemindersSkipsAlreadyClaimed(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	biz := uuid.New()
	first := &models.Appointment{ID: uuid.New(), BusinessID: biz}
	claimed := &models.Appointment{ID: uuid.New(), BusinessID: biz}

	repo := &mockAppointments{}
	repo.On("ListDueForReminder", mock.Anything, now, now.Add(24*time.Hour), reminderBatchSize).
		Return([]*models.Appointment{first, claimed}, nil)
	repo.On("MarkReminded", mock.Anything, biz, first.ID, now).Return(nil)
	repo.On("MarkReminded", mock.Anything, biz, claimed.ID, now).Return(pgx.ErrNoRows)

	events := &recordingPublisher{}
	js := newScheduler(t, nil, repo, events)
	js.now = func() time.Time { return now }

	sent, err := js.SendReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventAppointmentReminder, events.events[0].event)
	assert.Equal(t, biz, events.events[0].businessID)
	assert.Equal(t, &now, first.RemindedAt)
	repo.AssertExpectations(t)
}

func TestSendRemindersListFailure(t *testing.T) {
	repo := &mockAppointments{}
	repo.On("ListDueForReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	events := &recordingPublisher{}
	js := newScheduler(t, nil, repo, events)

	_, err := js.SendReminders(context.Background())
	assert.ErrorContains(t, err, "list due reminders")
	assert.Empty(t, events.events)
}

func TestRetryWebhooksPropagatesError(t *testing.T) {
	js := newScheduler(t, &countingRetrier{err: errors.New("db down")}, nil, &recordingPublisher{})
	assert.Error(t, js.RetryWebhooks(context.Background()))

	js = newScheduler(t, &countingRetrier{n: 2}, nil, &recordingPublisher{})
	assert.NoError(t, js.RetryWebhooks(context.Background()))
}

func TestFlushUsageRecordsTodayAndYesterday(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 2, 0, 0, time.UTC)
	active, idle := uuid.New(), uuid.New()

	counters := caching.NewMemoryCacheService()
	for i := 0; i < 3; i++ {
		_, err := counters.IncrementUsage(ctx, active, now.Add(-5*time.Minute))
		require.NoError(t, err)
	}
	_, err := counters.IncrementUsage(ctx, active, now)
	require.NoError(t, err)

	usage := &memUsage{}
	js := newSchedulerWithUsage(t, nil, nil, &recordingPublisher{}, &UsageFlush{
		Counters:   counters,
		Businesses: &staticBusinesses{ids: []uuid.UUID{active, idle}},
		Usage:      usage,
	})
	js.now = func() time.Time { return now }

	recorded, err := js.FlushUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, recorded)
	assert.Equal(t, []usageRecord{
		{businessID: active, day: "2026-03-09", requests: 3},
		{businessID: active, day: "2026-03-10", requests: 1},
	}, usage.records)
}

func TestFlushUsageStopsOnStoreError(t *testing.T) {
	ctx := context.Background()
	biz := uuid.New()
	counters := caching.NewMemoryCacheService()
	_, err := counters.IncrementUsage(ctx, biz, time.Now())
	require.NoError(t, err)

	js := newSchedulerWithUsage(t, nil, nil, &recordingPublisher{}, &UsageFlush{
		Counters:   counters,
		Businesses: &staticBusinesses{ids: []uuid.UUID{biz}},
		Usage:      &memUsage{err: errors.New("db down")},
	})

	_, err = js.FlushUsage(ctx)
	assert.ErrorContains(t, err, "record usage")

	js = newSchedulerWithUsage(t, nil, nil, &recordingPublisher{}, &UsageFlush{
		Counters:   counters,
		Businesses: &staticBusinesses{err: errors.New("db down")},
		Usage:      &memUsage{},
	})
	_, err = js.FlushUsage(ctx)
	assert.ErrorContains(t, err, "list businesses")
}
