package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus defines the reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusBooked    ReservationStatus = "BOOKED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
)

// ParseReservationStatus validates and normalizes a status value.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	status := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case ReservationStatusBooked, ReservationStatusCompleted, ReservationStatusCanceled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// IsTerminal reports whether the status no longer occupies a car.
func (status ReservationStatus) IsTerminal() bool {
	normalized := ReservationStatus(strings.ToUpper(string(status)))
	return normalized == ReservationStatusCompleted || normalized == ReservationStatusCanceled
}

// Reservation is a car booking with its per-day ledger.
// TotalPrice, AmountPaid and IsPaid are derived from Days by Recalculate.
type Reservation struct {
	ID              string
	CarID           string
	CustomerID      string
	StartAt         time.Time
	EndAt           time.Time
	PricePerDay     decimal.Decimal
	DiscountPercent decimal.Decimal
	Days            []DayEntry
	TotalPrice      decimal.Decimal
	AmountPaid      decimal.Decimal
	IsPaid          bool
	Status          ReservationStatus
	Deposit         decimal.Decimal
	Destination     string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FirstDay returns the earliest ledger day.
func (reservation Reservation) FirstDay() (Date, bool) {
	if len(reservation.Days) == 0 {
		return Date{}, false
	}
	return reservation.Days[0].Date, true
}

// LastDay returns the latest ledger day.
func (reservation Reservation) LastDay() (Date, bool) {
	if len(reservation.Days) == 0 {
		return Date{}, false
	}
	return reservation.Days[len(reservation.Days)-1].Date, true
}

// HasDayIn reports whether any ledger day falls within period.
func (reservation Reservation) HasDayIn(period Period) bool {
	for _, entry := range reservation.Days {
		if period.Contains(entry.Date) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no day storage with the receiver.
func (reservation Reservation) Clone() Reservation {
	cloned := reservation
	cloned.Days = append([]DayEntry(nil), reservation.Days...)
	return cloned
}

// Recalculate re-derives every day status and the reservation totals from Days.
func Recalculate(reservation *Reservation) {
	totalPrice := decimal.Zero
	amountPaid := decimal.Zero
	for index := range reservation.Days {
		entry := &reservation.Days[index]
		entry.Status = DeriveDayStatus(entry.Price, entry.Paid)
		totalPrice = totalPrice.Add(entry.Price)
		amountPaid = amountPaid.Add(entry.Paid)
	}
	if reservation.Days == nil {
		reservation.Days = []DayEntry{}
	}
	reservation.TotalPrice = totalPrice
	reservation.AmountPaid = amountPaid
	reservation.IsPaid = totalPrice.Sign() > 0 && amountPaid.GreaterThanOrEqual(totalPrice)
}

// CarStatus is the availability label of a car.
type CarStatus string

const (
	CarStatusFree     CarStatus = "FREE"
	CarStatusReserved CarStatus = "RESERVED"
	CarStatusService  CarStatus = "SERVICE"
)

// ParseManualCarStatus accepts the statuses an operator may set directly.
func ParseManualCarStatus(raw string) (CarStatus, error) {
	status := CarStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case CarStatusFree, CarStatusService:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCarStatus, raw)
	}
}

// Car is a rentable vehicle.
type Car struct {
	ID              string          `json:"id"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Plate           string          `json:"plate"`
	BasePricePerDay decimal.Decimal `json:"basePricePerDay"`
	Status          CarStatus       `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// DisplayName renders "Brand Model (Plate)".
func (car Car) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", car.Brand, car.Model, car.Plate)
}

// ComputeCarStatus keeps a manual SERVICE override, otherwise derives RESERVED
// from any non-terminal reservation of the car.
func ComputeCarStatus(car Car, reservations []Reservation) CarStatus {
	if car.Status == CarStatusService {
		return CarStatusService
	}
	for _, reservation := range reservations {
		if reservation.CarID == car.ID && !reservation.Status.IsTerminal() {
			return CarStatusReserved
		}
	}
	return CarStatusFree
}

// Customer is a renter.
type Customer struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Notes         string    `json:"notes"`
	IsBlacklisted bool      `json:"isBlacklisted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FullName renders "First Last".
func (customer Customer) FullName() string {
	return strings.TrimSpace(customer.FirstName + " " + customer.LastName)
}

// User is a back-office operator account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
