package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSummarySchedule runs the summary at local midnight.
const DefaultSummarySchedule = "0 0 * * *"

// Scheduler runs jobs on cron schedules in the ledger timezone.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *zap.Logger
	timeout  time.Duration
}

// NewScheduler creates a scheduler evaluating schedules in location. Each run
// gets a context bounded by timeout when timeout is positive.
func NewScheduler(location *time.Location, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		location: location,
		logger:   logger,
		timeout:  timeout,
	}
}

// Register adds a job under a standard five-field cron schedule.
func (scheduler *Scheduler) Register(schedule string, name string, run func(ctx context.Context) error) error {
	_, err := scheduler.cron.AddFunc(schedule, func() {
		ctx := context.Background()
		if scheduler.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, scheduler.timeout)
			defer cancel()
		}
		if err := run(ctx); err != nil {
			scheduler.logger.Warn("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register job %s with schedule %q: %w", name, schedule, err)
	}
	scheduler.logger.Info("job registered", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Entries returns the number of registered jobs.
func (scheduler *Scheduler) Entries() int {
	return len(scheduler.cron.Entries())
}

// NextAfter returns the first activation of the first registered job after instant.
func (scheduler *Scheduler) NextAfter(instant time.Time) (time.Time, bool) {
	entries := scheduler.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Schedule.Next(instant.In(scheduler.location)), true
}

// Start begins running jobs in the background.
func (scheduler *Scheduler) Start() {
	scheduler.cron.Start()
	scheduler.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (scheduler *Scheduler) Stop(ctx context.Context) {
	stopped := scheduler.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	scheduler.logger.Info("scheduler stopped")
}
