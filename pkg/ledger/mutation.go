package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayEdit is a partial update of one ledger day, matched by date. Date is
// kept as received so that an unreadable date drops only its own edit.
// Status is accepted on the wire but always re-derived.
type DayEdit struct {
	Date   string           `json:"date"`
	Status DayStatus        `json:"status,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Paid   *decimal.Decimal `json:"paid,omitempty"`
	Notes  *string          `json:"notes,omitempty"`
}

// DayEditResult lists which edit dates matched an existing day. Dropped
// holds the dates as they were sent.
type DayEditResult struct {
	Applied []Date
	Dropped []string
}

// ApplyDayEdits updates matching days in place and re-derives the totals.
// Edits whose date does not parse or is not in the ledger are dropped; no day is
// added, removed or re-dated, and the rental window is left untouched.
func ApplyDayEdits(reservation *Reservation, edits []DayEdit) DayEditResult {
	result := DayEditResult{Applied: []Date{}, Dropped: []string{}}
	for _, edit := range edits {
		date, err := ParseDate(edit.Date)
		if err != nil {
			result.Dropped = append(result.Dropped, edit.Date)
			continue
		}
		index := FindDay(reservation.Days, date)
		if index < 0 {
			result.Dropped = append(result.Dropped, edit.Date)
			continue
		}
		existing := reservation.Days[index]
		price := valueOr(edit.Price, existing.Price)
		paid := valueOr(edit.Paid, existing.Paid)
		notes := existing.Notes
		if edit.Notes != nil {
			notes = *edit.Notes
		}
		reservation.Days[index] = DayEntry{
			Date:   existing.Date,
			Price:  price,
			Paid:   paid,
			Status: DeriveDayStatus(price, paid),
			Notes:  notes,
		}
		result.Applied = append(result.Applied, existing.Date)
	}
	SortDays(reservation.Days)
	Recalculate(reservation)
	return result
}

// ConstructDays builds the initial ledger of a new reservation: one day per
// whole day in [start, end) (at least one), each priced unit × (1 − discount/100).
func (calendar Calendar) ConstructDays(start time.Time, end time.Time, unitPrice decimal.Decimal, discountPercent decimal.Decimal) []DayEntry {
	count := calendar.SpanDays(start, end)
	return BuildDays(calendar.DateOf(start), count, Discounted(unitPrice, discountPercent), "")
}

// Extension appends days after the current last day.
type Extension struct {
	DaysToAdd   int
	PricePerDay decimal.Decimal
	Notes       string
}

// ExtensionSpan returns the local-midnight interval the extension will occupy.
func (calendar Calendar) ExtensionSpan(reservation Reservation, daysToAdd int) (time.Time, time.Time) {
	base := extensionBase(calendar, reservation)
	return calendar.Midnight(base.AddDays(1)), calendar.Midnight(base.AddDays(daysToAdd + 1))
}

// Extend appends DaysToAdd uncollected days, moves EndAt to local midnight of
// the new last day and re-derives the totals. StartAt is unchanged.
func (calendar Calendar) Extend(reservation *Reservation, extension Extension) {
	base := extensionBase(calendar, *reservation)
	notes := extension.Notes
	if notes == "" {
		notes = ExtensionNote
	}
	reservation.Days = append(reservation.Days, BuildDays(base.AddDays(1), extension.DaysToAdd, extension.PricePerDay, notes)...)
	reservation.EndAt = calendar.Midnight(base.AddDays(extension.DaysToAdd))
	Recalculate(reservation)
}

func extensionBase(calendar Calendar, reservation Reservation) Date {
	if lastDay, ok := reservation.LastDay(); ok {
		return lastDay
	}
	return calendar.DateOf(reservation.StartAt).AddDays(-1)
}
