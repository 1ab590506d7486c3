package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gestly/internal/models"
	"gestly/internal/repositories"
	"gestly/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	webhookRetryInterval = time.Minute
	reminderInterval     = 15 * time.Minute
	reminderWindow       = 24 * time.Hour
	reminderBatchSize    = 200
	usageFlushInterval   = 5 * time.Minute
)

// WebhookRetrier re-sends webhook deliveries that are due.
type WebhookRetrier interface {
	RetryDue(ctx context.Context) (int, error)
}

// UsageCounter reads the live request counter of a business.
type UsageCounter interface {
	GetUsage(ctx context.Context, businessID uuid.UUID, day time.Time) (int64, error)
}

// UsageFlush copies live request counters into daily totals.
type UsageFlush struct {
	Counters   UsageCounter
	Businesses repositories.BusinessRepository
	Usage      repositories.UsageRepository
}

// JobScheduler runs the periodic jobs of one API instance. Every job runs in
// singleton mode so a slow run never overlaps the next one.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	retrier      WebhookRetrier
	appointments repositories.AppointmentRepository
	events       services.EventPublisher
	usage        *UsageFlush
	logger       *zap.Logger
	now          func() time.Time
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

// NewJobScheduler creates a new job scheduler. A nil dependency disables the
// job that needs it.
func NewJobScheduler(retrier WebhookRetrier, appointments repositories.AppointmentRepository,
	events services.EventPublisher, usage *UsageFlush, logger *zap.Logger, opts ...gocron.SchedulerOption) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		retrier:      retrier,
		appointments: appointments,
		events:       events,
		usage:        usage,
		logger:       logger,
		now:          time.Now,
		jobs:         make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.JobNames())))
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

func (js *JobScheduler) register(name string, every time.Duration, task func(context.Context) error) error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			if err := task(ctx); err != nil {
				js.logger.Error("background job failed", zap.String("job", name), zap.Error(err))
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create %s job: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) registerJobs() error {
	if js.retrier != nil {
		if err := js.register("webhook-retry", webhookRetryInterval, js.RetryWebhooks); err != nil {
			return err
		}
	}
	if js.appointments != nil {
		if err := js.register("appointment-reminders", reminderInterval, func(ctx context.Context) error {
			_, err := js.SendReminders(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	if js.usage != nil {
		if err := js.register("usage-flush", usageFlushInterval, func(ctx context.Context) error {
			_, err := js.FlushUsage(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// RetryWebhooks re-sends due webhook deliveries.
func (js *JobScheduler) RetryWebhooks(ctx context.Context) error {
	n, err := js.retrier.RetryDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		js.logger.Info("webhook deliveries retried", zap.Int("count", n))
	}
	return nil
}

// SendReminders emits appointment.reminder for appointments starting in the
// next 24 hours. An appointment is claimed with MarkReminded before the
// event goes out, so concurrent instances never remind twice.
func (js *JobScheduler) SendReminders(ctx context.Context) (int, error) {
	now := js.now().UTC()
	due, err := js.appointments.ListDueForReminder(ctx, now, now.Add(reminderWindow), reminderBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	sent := 0
	for _, appointment := range due {
		if err := js.appointments.MarkReminded(ctx, appointment.BusinessID, appointment.ID, now); err != nil {
			if repositories.IsNoRows(err) {
				continue
			}
			js.logger.Error("mark appointment reminded failed",
				zap.String("appointment_id", appointment.ID.String()), zap.Error(err))
			continue
		}
		appointment.RemindedAt = &now
		js.events.Publish(ctx, appointment.BusinessID, models.EventAppointmentReminder, appointment)
		sent++
	}
	if sent > 0 {
		js.logger.Info("appointment reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}

// FlushUsage persists today's and yesterday's request counters of every
// active business. Yesterday is included so requests counted just before
// midnight are not lost. It returns the number of days recorded.
func (js *JobScheduler) FlushUsage(ctx context.Context) (int, error) {
	ids, err := js.usage.Businesses.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list businesses: %w", err)
	}

	today := js.now().UTC()
	days := []time.Time{today.AddDate(0, 0, -1), today}
	recorded := 0
	for _, id := range ids {
		for _, day := range days {
			n, err := js.usage.Counters.GetUsage(ctx, id, day)
			if err != nil {
				return recorded, fmt.Errorf("read usage counter: %w", err)
			}
			if n == 0 {
				continue
			}
			if err := js.usage.Usage.Record(ctx, id, day, n); err != nil {
				return recorded, fmt.Errorf("record usage: %w", err)
			}
			recorded++
		}
	}
	if recorded > 0 {
		js.logger.Debug("usage counters flushed", zap.Int("days", recorded))
	}
	return recorded, nil
}
