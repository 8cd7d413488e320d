// Package backoffice manages the fleet records around reservations: cars,
// customers, fines, incomes, expenses and office incidents.
package backoffice

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	operationValidate = "validate"
	operationLookup   = "lookup"
	errorCodeInvalid  = "invalid"
	errorCodeMissing  = "missing"

	subjectCar          = "car"
	subjectCustomer     = "customer"
	subjectFine         = "fine"
	subjectIncome       = "income"
	subjectAdminExpense = "admin_expense"
	subjectCarExpense   = "car_expense"
	subjectIncident     = "incident"
)

// Store persists the back-office collections.
type Store interface {
	ListCars(ctx context.Context) ([]ledger.Car, error)
	SaveCars(ctx context.Context, cars []ledger.Car) error
	ListCustomers(ctx context.Context) ([]ledger.Customer, error)
	SaveCustomers(ctx context.Context, customers []ledger.Customer) error
	ListFines(ctx context.Context) ([]ledger.Fine, error)
	SaveFines(ctx context.Context, fines []ledger.Fine) error
	ListIncomes(ctx context.Context) ([]ledger.Income, error)
	SaveIncomes(ctx context.Context, incomes []ledger.Income) error
	ListAdminExpenses(ctx context.Context) ([]ledger.Expense, error)
	SaveAdminExpenses(ctx context.Context, expenses []ledger.Expense) error
	ListCarExpenses(ctx context.Context) ([]ledger.Expense, error)
	SaveCarExpenses(ctx context.Context, expenses []ledger.Expense) error
	ListIncidents(ctx context.Context) ([]ledger.Incident, error)
	SaveIncidents(ctx context.Context, incidents []ledger.Incident) error
}

// Service implements the back-office record operations.
type Service struct {
	store    Store
	calendar ledger.Calendar
	nowFn    func() time.Time
	newID    func() string
	notifier notify.Notifier
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sends creation events for expenses, fines, incomes and incidents.
func WithNotifier(notifier notify.Notifier) Option {
	return func(service *Service) {
		if notifier != nil {
			service.notifier = notifier
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(generate func() string) Option {
	return func(service *Service) {
		if generate != nil {
			service.newID = generate
		}
	}
}

// WithLogger sets the logger used for notification failures.
func WithLogger(logger *zap.Logger) Option {
	return func(service *Service) {
		if logger != nil {
			service.logger = logger
		}
	}
}

// NewService wires a Service.
func NewService(store Store, calendar ledger.Calendar, now func() time.Time, options ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	service := &Service{
		store:    store,
		calendar: calendar,
		nowFn:    now,
		newID:    uuid.NewString,
		notifier: notify.Discard{},
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

func (service *Service) notify(ctx context.Context, event notify.Event) {
	if err := service.notifier.Notify(ctx, event); err != nil {
		service.logger.Warn("notification failed", zap.String("kind", event.Kind), zap.Error(err))
	}
}

func (service *Service) today() ledger.Date {
	return service.calendar.Today(service.nowFn())
}

func invalid(subject string, message string) error {
	return ledger.WrapError(operationValidate, subject, errorCodeInvalid, fmt.Errorf("%w: %s", ledger.ErrValidation, message))
}

func notFound(subject string, id string) error {
	return ledger.WrapError(operationLookup, subject, errorCodeMissing, fmt.Errorf("%w: %s %q", ledger.ErrNotFound, subject, id))
}

func inPeriod(period *ledger.Period, date ledger.Date) bool {
	if period == nil {
		return true
	}
	return !date.IsZero() && period.Contains(date)
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	remaining := make([]T, 0, len(items))
	for _, item := range items {
		if idOf(item) != id {
			remaining = append(remaining, item)
		}
	}
	return remaining, len(remaining) != len(items)
}
