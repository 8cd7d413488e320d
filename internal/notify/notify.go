// Package notify delivers back-office events to an operator channel.
package notify

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event kinds emitted by the back office, the reservation ledger and the nightly job.
const (
	KindReservation  = "reservation"
	KindExtension    = "extension"
	KindAdminExpense = "admin_expense"
	KindCarExpense   = "car_expense"
	KindFine         = "fine"
	KindIncome       = "income"
	KindIncident     = "incident"
	KindDailySummary = "daily_summary"
)

// Event is a structured notification; rendering it as text is left to the sink.
type Event struct {
	Kind       string
	Subject    string
	Amount     decimal.Decimal
	Attributes map[string]string
}

// Notifier receives events. Delivery failures must not fail the caller's operation.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a LogNotifier; a nil logger discards events.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (notifier *LogNotifier) Notify(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("kind", event.Kind),
		zap.String("subject", event.Subject),
		zap.String("amount", event.Amount.String()),
	}
	keys := make([]string, 0, len(event.Attributes))
	for key := range event.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, zap.String(key, event.Attributes[key]))
	}
	notifier.logger.Info("notification", fields...)
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) error { return nil }
