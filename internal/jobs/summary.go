// Package jobs holds the scheduled background work of the service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/report"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"go.uber.org/zap"
)

// SummaryJobName labels the nightly summary in logs and metrics.
const SummaryJobName = "daily_summary"

// ErrInvalidJobConfig reports a job built without its dependencies.
var ErrInvalidJobConfig = errors.New("invalid job config")

// SummaryReporter computes the digest of a day; a nil day means yesterday.
type SummaryReporter interface {
	DailySummary(ctx context.Context, day *ledger.Date) (report.DailySummary, error)
}

// SummaryJob sends yesterday's cash digest to the operator channel.
type SummaryJob struct {
	reporter SummaryReporter
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	nowFn    func() time.Time
}

// SummaryOption configures a SummaryJob.
type SummaryOption func(*SummaryJob)

// WithLogger sets the job logger.
func WithLogger(logger *zap.Logger) SummaryOption {
	return func(job *SummaryJob) {
		if logger != nil {
			job.logger = logger
		}
	}
}

// WithMetrics records each run.
func WithMetrics(collectors *metrics.Metrics) SummaryOption {
	return func(job *SummaryJob) {
		job.metrics = collectors
	}
}

// NewSummaryJob wires a SummaryJob.
func NewSummaryJob(reporter SummaryReporter, notifier notify.Notifier, options ...SummaryOption) (*SummaryJob, error) {
	if reporter == nil {
		return nil, fmt.Errorf("%w: reporter dependency is nil", ErrInvalidJobConfig)
	}
	if notifier == nil {
		return nil, fmt.Errorf("%w: notifier dependency is nil", ErrInvalidJobConfig)
	}
	job := &SummaryJob{
		reporter: reporter,
		notifier: notifier,
		logger:   zap.NewNop(),
		nowFn:    time.Now,
	}
	for _, option := range options {
		if option != nil {
			option(job)
		}
	}
	return job, nil
}

// Run computes yesterday's summary and sends it.
func (job *SummaryJob) Run(ctx context.Context) error {
	startedAt := job.nowFn()
	err := job.run(ctx)
	job.metrics.ObserveJob(SummaryJobName, err, job.nowFn().Sub(startedAt))
	if err != nil {
		job.logger.Error("daily summary failed", zap.Error(err))
		return err
	}
	return nil
}

func (job *SummaryJob) run(ctx context.Context) error {
	summary, err := job.reporter.DailySummary(ctx, nil)
	if err != nil {
		return fmt.Errorf("compute daily summary: %w", err)
	}
	if err := job.notifier.Notify(ctx, SummaryEvent(summary)); err != nil {
		return fmt.Errorf("send daily summary: %w", err)
	}
	job.logger.Info("daily summary sent",
		zap.String("date", summary.Date.String()),
		zap.String("net_profit", summary.NetProfit.StringFixed(2)),
	)
	return nil
}

// SummaryEvent renders a DailySummary as a notification; Amount is the net profit.
func SummaryEvent(summary report.DailySummary) notify.Event {
	return notify.Event{
		Kind:    notify.KindDailySummary,
		Subject: summary.Date.String(),
		Amount:  summary.NetProfit,
		Attributes: map[string]string{
			"total_revenue":       summary.TotalRevenue.StringFixed(2),
			"reservation_revenue": summary.ReservationRevenue.StringFixed(2),
			"fine_revenue":        summary.FineRevenue.StringFixed(2),
			"other_income":        summary.OtherIncome.StringFixed(2),
			"total_expense":       summary.TotalExpense.StringFixed(2),
			"admin_expenses":      summary.AdminExpenses.StringFixed(2),
			"car_expenses":        summary.CarExpenses.StringFixed(2),
			"new_reservations":    fmt.Sprint(summary.NewReservations),
			"new_customers":       fmt.Sprint(summary.NewCustomers),
			"new_fines":           fmt.Sprint(summary.NewFines),
			"new_incidents":       fmt.Sprint(summary.NewIncidents),
			"new_incomes":         fmt.Sprint(summary.NewIncomes),
		},
	}
}
