package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DayStatus is the payment label of a single ledger day.
type DayStatus string

const (
	DayStatusFree    DayStatus = "free"
	DayStatusPaid    DayStatus = "paid"
	DayStatusPartial DayStatus = "partial"
	DayStatusUnpaid  DayStatus = "unpaid"
)

// DayEntry is one calendar day of a reservation's ledger.
type DayEntry struct {
	Date   Date            `json:"date"`
	Price  decimal.Decimal `json:"price"`
	Paid   decimal.Decimal `json:"paid"`
	Status DayStatus       `json:"status"`
	Notes  string          `json:"notes"`
}

// Debt returns the unpaid remainder of the day, which may be negative on overpayment.
func (entry DayEntry) Debt() decimal.Decimal {
	return entry.Price.Sub(entry.Paid)
}

// DeriveDayStatus labels a day from its price and collected amount.
func DeriveDayStatus(price decimal.Decimal, paid decimal.Decimal) DayStatus {
	switch {
	case price.Sign() <= 0:
		return DayStatusFree
	case paid.GreaterThanOrEqual(price):
		return DayStatusPaid
	case paid.Sign() > 0:
		return DayStatusPartial
	default:
		return DayStatusUnpaid
	}
}

// NewDayEntry builds an uncollected day with its derived status.
func NewDayEntry(date Date, price decimal.Decimal, notes string) DayEntry {
	return DayEntry{
		Date:   date,
		Price:  price,
		Paid:   decimal.Zero,
		Status: DeriveDayStatus(price, decimal.Zero),
		Notes:  notes,
	}
}

// BuildDays returns count consecutive days starting at start, each at price.
func BuildDays(start Date, count int, price decimal.Decimal, notes string) []DayEntry {
	if count <= 0 {
		return []DayEntry{}
	}
	days := make([]DayEntry, 0, count)
	for offset := 0; offset < count; offset++ {
		days = append(days, NewDayEntry(start.AddDays(offset), price, notes))
	}
	return days
}

// SortDays orders days ascending by date.
func SortDays(days []DayEntry) {
	sort.SliceStable(days, func(left int, right int) bool {
		return days[left].Date.Before(days[right].Date)
	})
}

// FindDay returns the index of the entry dated date, or -1.
func FindDay(days []DayEntry, date Date) int {
	for index, entry := range days {
		if entry.Date == date {
			return index
		}
	}
	return -1
}
