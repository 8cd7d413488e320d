package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing reservation operation.
type OperationLog struct {
	Operation     string
	ReservationID string
	CarID         string
	TotalPrice    decimal.Decimal
	AmountPaid    decimal.Decimal
	DroppedDates  []string
	Status        string
	Error         error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithIDGenerator replaces the reservation id generator.
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		if generate != nil {
			service.newID = generate
		}
	}
}

// Reservation event kinds passed to a Notifier.
const (
	EventReservationCreated  = "reservation_created"
	EventReservationExtended = "reservation_extended"
)

// ReservationEvent describes a committed reservation change.
type ReservationEvent struct {
	Kind        string
	Reservation Reservation
	DaysAdded   int
}

// Notifier announces committed reservation events. A delivery error is
// logged and never fails the operation.
type Notifier interface {
	NotifyReservation(ctx context.Context, event ReservationEvent) error
}

// WithNotifier announces new reservations and extensions.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(service *Service) {
		service.notifier = notifier
	}
}
