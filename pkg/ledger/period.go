package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start Date
	End   Date
}

// DayPeriod covers a single day.
func DayPeriod(date Date) Period {
	return Period{Start: date, End: date}
}

// MonthPeriod covers the month containing date.
func MonthPeriod(date Date) Period {
	start := NewDate(date.Year(), date.Month(), 1)
	return Period{Start: start, End: NewDate(date.Year(), date.Month(), DaysInMonth(start))}
}

// YearPeriod covers a calendar year.
func YearPeriod(year int) Period {
	return Period{Start: NewDate(year, time.January, 1), End: NewDate(year, time.December, 31)}
}

// Contains reports whether date lies within the period, both ends included.
func (period Period) Contains(date Date) bool {
	return !date.Before(period.Start) && !date.After(period.End)
}

// Days returns the number of calendar days in the period.
func (period Period) Days() int {
	return DaysBetween(period.Start, period.End) + 1
}

// ParseMonth parses "YYYY-MM" (a full date is accepted and truncated to its month).
func ParseMonth(raw string) (Period, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= len(dateLayout) {
		date, err := ParseDate(trimmed)
		if err != nil {
			return Period{}, err
		}
		return MonthPeriod(date), nil
	}
	parsed, err := time.Parse(monthLayout, trimmed)
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q", ErrInvalidDate, raw)
	}
	return MonthPeriod(DateOf(parsed)), nil
}

// ParseYear parses a four-digit year.
func ParseYear(raw string) (Period, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %q", ErrInvalidDate, raw)
	}
	return YearPeriod(year), nil
}

// ResolvePeriod picks the most specific of day, month and year that is set.
// It reports false when none is set.
func ResolvePeriod(day string, month string, year string) (Period, bool, error) {
	switch {
	case strings.TrimSpace(day) != "":
		date, err := ParseDate(day)
		if err != nil {
			return Period{}, false, err
		}
		return DayPeriod(date), true, nil
	case strings.TrimSpace(month) != "":
		period, err := ParseMonth(month)
		return period, err == nil, err
	case strings.TrimSpace(year) != "":
		period, err := ParseYear(year)
		return period, err == nil, err
	default:
		return Period{}, false, nil
	}
}
