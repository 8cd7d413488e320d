package ledger

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// DefaultTimezone is the ledger-local timezone used for day boundaries.
	DefaultTimezone = "Asia/Baku"
	windowLayout    = "2006-01-02T15:04"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	windowLayout,
	"2006-01-02 15:04",
	dateLayout,
}

// Calendar maps instants to ledger-local calendar days.
type Calendar struct {
	location *time.Location
}

// NewCalendar loads the named IANA timezone; an empty name selects DefaultTimezone.
func NewCalendar(timezone string) (Calendar, error) {
	name := strings.TrimSpace(timezone)
	if name == "" {
		name = DefaultTimezone
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidServiceConfig, name, err)
	}
	return Calendar{location: location}, nil
}

// MustCalendar is NewCalendar for known-good timezone names.
func MustCalendar(timezone string) Calendar {
	calendar, err := NewCalendar(timezone)
	if err != nil {
		panic(err)
	}
	return calendar
}

// Location returns the ledger timezone.
func (calendar Calendar) Location() *time.Location {
	if calendar.location == nil {
		return time.UTC
	}
	return calendar.location
}

// ParseInstant parses an RFC 3339 timestamp or a wall-clock value in the ledger timezone.
func (calendar Calendar) ParseInstant(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidInstant)
	}
	for _, layout := range instantLayouts {
		parsed, err := time.ParseInLocation(layout, trimmed, calendar.Location())
		if err == nil {
			return parsed.In(calendar.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInstant, raw)
}

// DateOf returns the ledger-local calendar day of an instant.
func (calendar Calendar) DateOf(instant time.Time) Date {
	return DateOf(instant.In(calendar.Location()))
}

// Midnight returns the start of the day in the ledger timezone.
func (calendar Calendar) Midnight(date Date) time.Time {
	return date.In(calendar.Location())
}

// Today returns the ledger-local date of now.
func (calendar Calendar) Today(now time.Time) Date {
	return calendar.DateOf(now)
}

// SpanDays counts whole days between the local start-of-day of start and end, never less than one.
func (calendar Calendar) SpanDays(start time.Time, end time.Time) int {
	days := DaysBetween(calendar.DateOf(start), calendar.DateOf(end))
	if days <= 0 {
		return 1
	}
	return days
}

// FormatWindow renders an instant as the ledger-local "YYYY-MM-DDTHH:MM" wall clock.
func (calendar Calendar) FormatWindow(instant time.Time) string {
	if instant.IsZero() {
		return ""
	}
	return instant.In(calendar.Location()).Format(windowLayout)
}
