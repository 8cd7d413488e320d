package ledger

import "time"

// OccupiedInterval returns [first day 00:00, last day + 1 00:00) in the ledger
// timezone. The return day itself does not block a same-day pickup.
func (calendar Calendar) OccupiedInterval(reservation Reservation) (time.Time, time.Time, bool) {
	firstDay, ok := reservation.FirstDay()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	lastDay, _ := reservation.LastDay()
	return calendar.Midnight(firstDay), calendar.Midnight(lastDay.AddDays(1)), true
}

// HasOverlap reports whether an active reservation of carID, other than
// ignoreID, occupies any part of [start, end). A degenerate range is treated as
// the single instant start.
func (calendar Calendar) HasOverlap(reservations []Reservation, carID string, start time.Time, end time.Time, ignoreID string) bool {
	for _, reservation := range reservations {
		if reservation.CarID != carID {
			continue
		}
		if ignoreID != "" && reservation.ID == ignoreID {
			continue
		}
		if reservation.Status.IsTerminal() {
			continue
		}
		occupiedStart, occupiedEnd, ok := calendar.OccupiedInterval(reservation)
		if !ok {
			continue
		}
		if intervalsOverlap(start, end, occupiedStart, occupiedEnd) {
			return true
		}
	}
	return false
}

func intervalsOverlap(start time.Time, end time.Time, occupiedStart time.Time, occupiedEnd time.Time) bool {
	if !end.After(start) {
		return !start.Before(occupiedStart) && start.Before(occupiedEnd)
	}
	return start.Before(occupiedEnd) && occupiedStart.Before(end)
}
