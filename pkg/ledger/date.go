package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar day without a time of day.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the normalized calendar day (2024-01-32 becomes 2024-02-01).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of the instant in its own location.
func DateOf(instant time.Time) Date {
	year, month, day := instant.Date()
	return Date{year: year, month: month, day: day}
}

// ParseDate reads the leading YYYY-MM-DD of raw, so full timestamps are accepted.
func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < len(dateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	parsed, err := time.Parse(dateLayout, trimmed[:len(dateLayout)])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateOf(parsed), nil
}

// IsZero reports whether the date is unset.
func (date Date) IsZero() bool {
	return date.year == 0 && date.month == 0 && date.day == 0
}

// Year returns the calendar year.
func (date Date) Year() int {
	return date.year
}

// Month returns the calendar month.
func (date Date) Month() time.Month {
	return date.month
}

// Day returns the day of month.
func (date Date) Day() int {
	return date.day
}

// AddDays shifts the date by whole days.
func (date Date) AddDays(days int) Date {
	return NewDate(date.year, date.month, date.day+days)
}

// Compare returns -1, 0 or 1 when date is before, equal to or after other.
func (date Date) Compare(other Date) int {
	switch {
	case date.year != other.year:
		return compareInts(date.year, other.year)
	case date.month != other.month:
		return compareInts(int(date.month), int(other.month))
	default:
		return compareInts(date.day, other.day)
	}
}

// Before reports whether date is strictly earlier than other.
func (date Date) Before(other Date) bool {
	return date.Compare(other) < 0
}

// After reports whether date is strictly later than other.
func (date Date) After(other Date) bool {
	return date.Compare(other) > 0
}

// In returns local midnight of the date.
func (date Date) In(location *time.Location) time.Time {
	return time.Date(date.year, date.month, date.day, 0, 0, 0, 0, location)
}

// String formats the date as YYYY-MM-DD.
func (date Date) String() string {
	if date.IsZero() {
		return ""
	}
	return date.In(time.UTC).Format(dateLayout)
}

// MonthKey formats the date as YYYY-MM.
func (date Date) MonthKey() string {
	return date.In(time.UTC).Format(monthLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when unset.
func (date Date) MarshalJSON() ([]byte, error) {
	if date.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(date.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", any timestamp starting with it, "" and null.
func (date *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*date = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	if strings.TrimSpace(raw) == "" {
		*date = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*date = parsed
	return nil
}

// DaysBetween returns the number of whole days from start to end.
func DaysBetween(start Date, end Date) int {
	startUTC := start.In(time.UTC)
	endUTC := end.In(time.UTC)
	return int(endUTC.Sub(startUTC).Hours() / 24)
}

// DaysInMonth returns the length of the month containing date.
func DaysInMonth(date Date) int {
	return NewDate(date.year, date.month+1, 0).day
}

func compareInts(left int, right int) int {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}
