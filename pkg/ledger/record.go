package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// reservationDocument is the canonical stored and wire shape of a reservation.
type reservationDocument struct {
	ID              string            `json:"id"`
	CarID           string            `json:"carId"`
	CustomerID      string            `json:"customerId"`
	StartAt         string            `json:"startAt"`
	EndAt           string            `json:"endAt"`
	PricePerDay     decimal.Decimal   `json:"pricePerDay"`
	DiscountPercent decimal.Decimal   `json:"discountPercent"`
	Days            []DayEntry        `json:"days"`
	TotalPrice      decimal.Decimal   `json:"totalPrice"`
	AmountPaid      decimal.Decimal   `json:"amountPaid"`
	IsPaid          bool              `json:"isPaid"`
	Status          ReservationStatus `json:"status"`
	Deposit         decimal.Decimal   `json:"deposit"`
	Destination     string            `json:"destination"`
	Notes           string            `json:"notes"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
}

// reservationRecord accepts both current and legacy stored shapes; days may be
// an array, a legacy day count, or absent.
type reservationRecord struct {
	ID              string          `json:"id"`
	CarID           string          `json:"carId"`
	CustomerID      string          `json:"customerId"`
	StartAt         string          `json:"startAt"`
	EndAt           string          `json:"endAt"`
	PricePerDay     decimal.Decimal `json:"pricePerDay"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Days            json.RawMessage `json:"days"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	Status          string          `json:"status"`
	Deposit         decimal.Decimal `json:"deposit"`
	Destination     string          `json:"destination"`
	Notes           string          `json:"notes"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// MarshalJSON writes the reservation with wall-clock window times in their own location.
func (reservation Reservation) MarshalJSON() ([]byte, error) {
	days := reservation.Days
	if days == nil {
		days = []DayEntry{}
	}
	return json.Marshal(reservationDocument{
		ID:              reservation.ID,
		CarID:           reservation.CarID,
		CustomerID:      reservation.CustomerID,
		StartAt:         formatWindow(reservation.StartAt),
		EndAt:           formatWindow(reservation.EndAt),
		PricePerDay:     reservation.PricePerDay,
		DiscountPercent: reservation.DiscountPercent,
		Days:            days,
		TotalPrice:      reservation.TotalPrice,
		AmountPaid:      reservation.AmountPaid,
		IsPaid:          reservation.IsPaid,
		Status:          reservation.Status,
		Deposit:         reservation.Deposit,
		Destination:     reservation.Destination,
		Notes:           reservation.Notes,
		CreatedAt:       formatTimestamp(reservation.CreatedAt),
		UpdatedAt:       formatTimestamp(reservation.UpdatedAt),
	})
}

// DecodeReservation reads a stored reservation, upgrading legacy records to a
// day ledger. It reports whether an upgrade happened. Totals are always
// re-derived from the resulting days.
func (calendar Calendar) DecodeReservation(data []byte) (Reservation, bool, error) {
	var record reservationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return Reservation{}, false, corruptedRecord("", err)
	}
	startAt, err := calendar.parseOptionalInstant(record.StartAt)
	if err != nil {
		return Reservation{}, false, corruptedRecord(record.ID, err)
	}
	endAt, err := calendar.parseOptionalInstant(record.EndAt)
	if err != nil {
		return Reservation{}, false, corruptedRecord(record.ID, err)
	}
	status := ReservationStatus(strings.ToUpper(strings.TrimSpace(record.Status)))
	if status == "" {
		status = ReservationStatusBooked
	}
	reservation := Reservation{
		ID:              record.ID,
		CarID:           record.CarID,
		CustomerID:      record.CustomerID,
		StartAt:         startAt,
		EndAt:           endAt,
		PricePerDay:     record.PricePerDay,
		DiscountPercent: record.DiscountPercent,
		Status:          status,
		Deposit:         record.Deposit,
		Destination:     record.Destination,
		Notes:           record.Notes,
		CreatedAt:       calendar.parseTimestamp(record.CreatedAt),
		UpdatedAt:       calendar.parseTimestamp(record.UpdatedAt),
	}

	days, legacyCount, isLegacy, err := decodeDays(record.Days)
	if err != nil {
		return Reservation{}, false, corruptedRecord(record.ID, err)
	}
	if isLegacy {
		if startAt.IsZero() {
			return Reservation{}, false, corruptedRecord(record.ID, fmt.Errorf("legacy record without startAt"))
		}
		if legacyCount <= 0 && calendar.SpanDays(startAt, endAt) > MaxLedgerDays {
			return Reservation{}, false, corruptedRecord(record.ID, fmt.Errorf("legacy window exceeds %d days", MaxLedgerDays))
		}
		days = calendar.UpgradeLegacy(LegacyTerms{
			DayCount:    legacyCount,
			PricePerDay: record.PricePerDay,
			TotalPrice:  record.TotalPrice,
			AmountPaid:  record.AmountPaid,
			StartAt:     startAt,
			EndAt:       endAt,
		})
	}
	reservation.Days = days
	SortDays(reservation.Days)
	Recalculate(&reservation)
	return reservation, isLegacy, nil
}

func decodeDays(raw json.RawMessage) ([]DayEntry, int, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, true, nil
	}
	if trimmed[0] == '[' {
		var days []DayEntry
		if err := json.Unmarshal(trimmed, &days); err != nil {
			return nil, 0, false, err
		}
		return days, 0, false, nil
	}
	var count decimal.Decimal
	if err := json.Unmarshal(trimmed, &count); err != nil {
		return nil, 0, false, fmt.Errorf("days is neither a list nor a count: %w", err)
	}
	if count.GreaterThan(decimal.NewFromInt(MaxLedgerDays)) {
		return nil, 0, false, fmt.Errorf("legacy day count %s exceeds %d", count, MaxLedgerDays)
	}
	return nil, int(count.IntPart()), true, nil
}

func (calendar Calendar) parseOptionalInstant(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return calendar.ParseInstant(raw)
}

func (calendar Calendar) parseTimestamp(raw string) time.Time {
	parsed, err := calendar.parseOptionalInstant(raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatWindow(instant time.Time) string {
	if instant.IsZero() {
		return ""
	}
	return instant.Format(windowLayout)
}

func formatTimestamp(instant time.Time) string {
	if instant.IsZero() {
		return ""
	}
	return instant.UTC().Format(time.RFC3339Nano)
}

func corruptedRecord(id string, err error) error {
	return WrapError(operationDecode, subjectReservation, errorCodeCorrupted, fmt.Errorf("%w: reservation %q: %v", ErrStorageCorrupted, id, err))
}
