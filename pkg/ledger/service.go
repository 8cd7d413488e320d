package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store persists whole reservation and car collections.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	ListReservations(ctx context.Context) ([]Reservation, error)
	SaveReservations(ctx context.Context, reservations []Reservation) error
	ListCars(ctx context.Context) ([]Car, error)
	SaveCars(ctx context.Context, cars []Car) error
}

// Service contains the reservation day-ledger logic over a Store.
type Service struct {
	store    Store
	calendar Calendar
	nowFn    func() time.Time
	newID    func() string
	logger   OperationLogger
	notifier Notifier
}

// NewService wires a Service.
func NewService(store Store, calendar Calendar, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, calendar: calendar, nowFn: now, newID: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Calendar returns the ledger calendar.
func (service *Service) Calendar() Calendar {
	return service.calendar
}

// AvailabilityQuery asks whether a car is free over [StartAt, EndAt).
type AvailabilityQuery struct {
	CarID    string
	StartAt  string
	EndAt    string
	IgnoreID string
}

// CreateReservationInput carries the fields of a new booking.
type CreateReservationInput struct {
	CarID           string
	CustomerID      string
	StartAt         string
	EndAt           string
	PricePerDay     *decimal.Decimal
	DiscountPercent decimal.Decimal
	Destination     string
	Deposit         decimal.Decimal
	Notes           string
}

// ReservationPatch updates descriptive fields; days are never touched.
type ReservationPatch struct {
	Status  *ReservationStatus
	Notes   *string
	Deposit *decimal.Decimal
}

// ExtendInput appends days to a reservation.
type ExtendInput struct {
	DaysToAdd   int
	PricePerDay *decimal.Decimal
	Notes       string
}

// ListReservations returns reservations, newest first, optionally limited to one customer.
func (service *Service) ListReservations(ctx context.Context, customerID string) ([]Reservation, error) {
	reservations, err := service.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]Reservation, 0, len(reservations))
	for _, reservation := range reservations {
		if customerID == "" || reservation.CustomerID == customerID {
			filtered = append(filtered, reservation)
		}
	}
	sort.SliceStable(filtered, func(left int, right int) bool {
		return filtered[left].CreatedAt.After(filtered[right].CreatedAt)
	})
	return filtered, nil
}

// GetReservation returns one reservation.
func (service *Service) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	reservations, err := service.store.ListReservations(ctx)
	if err != nil {
		return Reservation{}, err
	}
	index := findReservation(reservations, reservationID)
	if index < 0 {
		return Reservation{}, fmt.Errorf("%w: reservation %q", ErrNotFound, reservationID)
	}
	return reservations[index], nil
}

// CheckAvailability reports whether the proposed window collides with an active booking.
func (service *Service) CheckAvailability(ctx context.Context, query AvailabilityQuery) (bool, error) {
	if strings.TrimSpace(query.CarID) == "" {
		return false, nil
	}
	startAt, endAt, err := service.parseWindow(query.StartAt, query.EndAt)
	if err != nil {
		return false, err
	}
	reservations, err := service.store.ListReservations(ctx)
	if err != nil {
		return false, err
	}
	return service.calendar.HasOverlap(reservations, query.CarID, startAt, endAt, query.IgnoreID), nil
}

// CreateReservation books a car and builds the initial day ledger.
func (service *Service) CreateReservation(ctx context.Context, input CreateReservationInput) (Reservation, error) {
	if strings.TrimSpace(input.CarID) == "" || strings.TrimSpace(input.CustomerID) == "" ||
		strings.TrimSpace(input.StartAt) == "" || strings.TrimSpace(input.EndAt) == "" {
		return Reservation{}, validationError(subjectReservation, "carId, customerId, startAt and endAt are required")
	}
	startAt, endAt, err := service.parseWindow(input.StartAt, input.EndAt)
	if err != nil {
		return Reservation{}, err
	}
	if input.DiscountPercent.Sign() < 0 || input.DiscountPercent.GreaterThan(hundred) {
		return Reservation{}, validationError(subjectReservation, "discountPercent must be between 0 and 100")
	}
	if service.calendar.SpanDays(startAt, endAt) > MaxLedgerDays {
		return Reservation{}, validationError(subjectWindow, fmt.Sprintf("a reservation holds at most %d days", MaxLedgerDays))
	}

	var created Reservation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservations, err := transactionStore.ListReservations(ctx)
		if err != nil {
			return err
		}
		if service.calendar.HasOverlap(reservations, input.CarID, startAt, endAt, "") {
			return WrapError(operationCreate, subjectReservation, errorCodeOverlap, ErrConflict)
		}
		cars, err := transactionStore.ListCars(ctx)
		if err != nil {
			return err
		}
		unitPrice := decimal.Zero
		if input.PricePerDay != nil {
			unitPrice = *input.PricePerDay
		} else if carIndex := findCar(cars, input.CarID); carIndex >= 0 {
			unitPrice = cars[carIndex].BasePricePerDay
		}
		now := service.nowFn()
		reservation := Reservation{
			ID:              service.newID(),
			CarID:           input.CarID,
			CustomerID:      input.CustomerID,
			StartAt:         startAt,
			EndAt:           endAt,
			PricePerDay:     unitPrice,
			DiscountPercent: input.DiscountPercent,
			Days:            service.calendar.ConstructDays(startAt, endAt, unitPrice, input.DiscountPercent),
			Status:          ReservationStatusBooked,
			Deposit:         input.Deposit,
			Destination:     input.Destination,
			Notes:           input.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		Recalculate(&reservation)
		reservations = append(reservations, reservation)
		if err := transactionStore.SaveReservations(ctx, reservations); err != nil {
			return err
		}
		created = reservation
		return refreshCarStatus(ctx, transactionStore, cars, reservations, input.CarID, now)
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationCreate,
		ReservationID: created.ID,
		CarID:         input.CarID,
		TotalPrice:    created.TotalPrice,
		AmountPaid:    created.AmountPaid,
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	service.notify(ctx, ReservationEvent{Kind: EventReservationCreated, Reservation: created})
	return created, nil
}

// UpdateDays applies day-level edits. Edits for dates outside the ledger are dropped.
func (service *Service) UpdateDays(ctx context.Context, reservationID string, edits []DayEdit) (Reservation, error) {
	if len(edits) == 0 {
		return Reservation{}, validationError(subjectDays, "daysToUpdate must not be empty")
	}
	for _, edit := range edits {
		if edit.Paid != nil && edit.Paid.Sign() < 0 {
			return Reservation{}, validationError(subjectDays, fmt.Sprintf("paid for %s must not be negative", edit.Date))
		}
	}
	var (
		updated Reservation
		result  DayEditResult
	)
	operationError := service.mutateReservation(ctx, reservationID, func(reservation *Reservation, reservations []Reservation) error {
		result = ApplyDayEdits(reservation, edits)
		return nil
	}, &updated)
	service.logOperation(ctx, OperationLog{
		Operation:     operationUpdateDays,
		ReservationID: reservationID,
		CarID:         updated.CarID,
		TotalPrice:    updated.TotalPrice,
		AmountPaid:    updated.AmountPaid,
		DroppedDates:  result.Dropped,
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	return updated, nil
}

// UpdateReservation changes status, notes or deposit and recomputes the car status.
func (service *Service) UpdateReservation(ctx context.Context, reservationID string, patch ReservationPatch) (Reservation, error) {
	var updated Reservation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservations, err := transactionStore.ListReservations(ctx)
		if err != nil {
			return err
		}
		index := findReservation(reservations, reservationID)
		if index < 0 {
			return fmt.Errorf("%w: reservation %q", ErrNotFound, reservationID)
		}
		reservation := reservations[index].Clone()
		if patch.Status != nil {
			reservation.Status = *patch.Status
		}
		if patch.Notes != nil {
			reservation.Notes = *patch.Notes
		}
		if patch.Deposit != nil {
			reservation.Deposit = *patch.Deposit
		}
		now := service.nowFn()
		reservation.UpdatedAt = now
		Recalculate(&reservation)
		reservations[index] = reservation
		if err := transactionStore.SaveReservations(ctx, reservations); err != nil {
			return err
		}
		updated = reservation
		cars, err := transactionStore.ListCars(ctx)
		if err != nil {
			return err
		}
		return refreshCarStatus(ctx, transactionStore, cars, reservations, reservation.CarID, now)
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationUpdate,
		ReservationID: reservationID,
		CarID:         updated.CarID,
		TotalPrice:    updated.TotalPrice,
		AmountPaid:    updated.AmountPaid,
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	return updated, nil
}

// Extend appends days after the last ledger day and moves the rental end.
func (service *Service) Extend(ctx context.Context, reservationID string, input ExtendInput) (Reservation, error) {
	if input.DaysToAdd <= 0 || input.PricePerDay == nil {
		return Reservation{}, validationError(subjectDays, "daysToAdd and newPricePerDay are required")
	}
	if input.DaysToAdd > MaxLedgerDays {
		return Reservation{}, validationError(subjectDays, fmt.Sprintf("daysToAdd must not exceed %d", MaxLedgerDays))
	}
	var updated Reservation
	operationError := service.mutateReservation(ctx, reservationID, func(reservation *Reservation, reservations []Reservation) error {
		if len(reservation.Days)+input.DaysToAdd > MaxLedgerDays {
			return validationError(subjectDays, fmt.Sprintf("a reservation holds at most %d days", MaxLedgerDays))
		}
		spanStart, spanEnd := service.calendar.ExtensionSpan(*reservation, input.DaysToAdd)
		if service.calendar.HasOverlap(reservations, reservation.CarID, spanStart, spanEnd, reservation.ID) {
			return WrapError(operationExtend, subjectReservation, errorCodeOverlap, ErrConflict)
		}
		service.calendar.Extend(reservation, Extension{
			DaysToAdd:   input.DaysToAdd,
			PricePerDay: *input.PricePerDay,
			Notes:       input.Notes,
		})
		return nil
	}, &updated)
	service.logOperation(ctx, OperationLog{
		Operation:     operationExtend,
		ReservationID: reservationID,
		CarID:         updated.CarID,
		TotalPrice:    updated.TotalPrice,
		AmountPaid:    updated.AmountPaid,
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	service.notify(ctx, ReservationEvent{Kind: EventReservationExtended, Reservation: updated, DaysAdded: input.DaysToAdd})
	return updated, nil
}

// DeleteReservation removes a reservation and recomputes the car status.
func (service *Service) DeleteReservation(ctx context.Context, reservationID string) error {
	var carID string
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservations, err := transactionStore.ListReservations(ctx)
		if err != nil {
			return err
		}
		index := findReservation(reservations, reservationID)
		if index < 0 {
			return fmt.Errorf("%w: reservation %q", ErrNotFound, reservationID)
		}
		carID = reservations[index].CarID
		remaining := append(reservations[:index:index], reservations[index+1:]...)
		if err := transactionStore.SaveReservations(ctx, remaining); err != nil {
			return err
		}
		cars, err := transactionStore.ListCars(ctx)
		if err != nil {
			return err
		}
		return refreshCarStatus(ctx, transactionStore, cars, remaining, carID, service.nowFn())
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationDelete,
		ReservationID: reservationID,
		CarID:         carID,
		Error:         operationError,
	})
	return operationError
}

func (service *Service) mutateReservation(ctx context.Context, reservationID string, mutate func(reservation *Reservation, reservations []Reservation) error, result *Reservation) error {
	return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservations, err := transactionStore.ListReservations(ctx)
		if err != nil {
			return err
		}
		index := findReservation(reservations, reservationID)
		if index < 0 {
			return fmt.Errorf("%w: reservation %q", ErrNotFound, reservationID)
		}
		reservation := reservations[index].Clone()
		if err := mutate(&reservation, reservations); err != nil {
			return err
		}
		reservation.UpdatedAt = service.nowFn()
		Recalculate(&reservation)
		reservations[index] = reservation
		if err := transactionStore.SaveReservations(ctx, reservations); err != nil {
			return err
		}
		*result = reservation
		return nil
	})
}

func (service *Service) parseWindow(rawStart string, rawEnd string) (time.Time, time.Time, error) {
	startAt, err := service.calendar.ParseInstant(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, validationError(subjectWindow, "startAt: "+err.Error())
	}
	endAt, err := service.calendar.ParseInstant(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, validationError(subjectWindow, "endAt: "+err.Error())
	}
	return startAt, endAt, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func (service *Service) notify(ctx context.Context, event ReservationEvent) {
	if service.notifier == nil {
		return
	}
	if err := service.notifier.NotifyReservation(ctx, event); err != nil {
		service.logOperation(ctx, OperationLog{
			Operation:     operationNotify,
			ReservationID: event.Reservation.ID,
			CarID:         event.Reservation.CarID,
			TotalPrice:    event.Reservation.TotalPrice,
			AmountPaid:    event.Reservation.AmountPaid,
			Error:         err,
		})
	}
}

func refreshCarStatus(ctx context.Context, transactionStore Store, cars []Car, reservations []Reservation, carID string, now time.Time) error {
	index := findCar(cars, carID)
	if index < 0 {
		return nil
	}
	status := ComputeCarStatus(cars[index], reservations)
	if cars[index].Status == status {
		return nil
	}
	cars[index].Status = status
	cars[index].UpdatedAt = now
	if err := transactionStore.SaveCars(ctx, cars); err != nil {
		return WrapError(operationCarStatus, subjectCar, errorCodeSave, err)
	}
	return nil
}

func findReservation(reservations []Reservation, reservationID string) int {
	for index, reservation := range reservations {
		if reservation.ID == reservationID {
			return index
		}
	}
	return -1
}

func findCar(cars []Car, carID string) int {
	for index, car := range cars {
		if car.ID == carID {
			return index
		}
	}
	return -1
}
