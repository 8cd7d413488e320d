package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyTerms are the aggregate fields a reservation carried before per-day ledgers existed.
type LegacyTerms struct {
	DayCount    int
	PricePerDay decimal.Decimal
	TotalPrice  decimal.Decimal
	AmountPaid  decimal.Decimal
	StartAt     time.Time
	EndAt       time.Time
}

// UpgradeLegacy rebuilds a day ledger from legacy aggregate fields.
// Days start on the local date of StartAt; the legacy amount paid is allocated
// to the earliest days first.
func (calendar Calendar) UpgradeLegacy(terms LegacyTerms) []DayEntry {
	count := terms.DayCount
	if count <= 0 {
		count = calendar.SpanDays(terms.StartAt, terms.EndAt)
	}
	unitPrice := terms.PricePerDay
	if unitPrice.IsZero() {
		unitPrice = terms.TotalPrice.Div(decimal.NewFromInt(int64(count)))
	}
	days := BuildDays(calendar.DateOf(terms.StartAt), count, unitPrice, LegacyMigrationNote)
	AllocatePayment(days, terms.AmountPaid)
	return days
}

// AllocatePayment spreads amount over days in slice order, filling each day's
// price before moving on. Whatever does not fit stays unallocated.
func AllocatePayment(days []DayEntry, amount decimal.Decimal) {
	remaining := amount
	for index := range days {
		if remaining.Sign() <= 0 {
			break
		}
		entry := &days[index]
		if remaining.GreaterThanOrEqual(entry.Price) {
			entry.Paid = entry.Price
			remaining = remaining.Sub(entry.Price)
		} else {
			entry.Paid = remaining
			remaining = decimal.Zero
		}
		entry.Status = DeriveDayStatus(entry.Price, entry.Paid)
	}
}
