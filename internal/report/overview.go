package report

import (
	"encoding/json"
	"fmt"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Calendar event colours by reservation status.
const (
	ColorBooked    = "#1e6fff"
	ColorCompleted = "#4a5b78"
	ColorCanceled  = "#ef4444"
)

// RevenueReport lists the reservations touching a period.
type RevenueReport struct {
	Items []ledger.Reservation `json:"items"`
	Total decimal.Decimal      `json:"total"`
	Count int                  `json:"count"`
}

// Revenue collects every reservation with at least one ledger day in period,
// whatever its status, and sums their total price.
func Revenue(dataset Dataset, period ledger.Period) RevenueReport {
	report := RevenueReport{Items: []ledger.Reservation{}, Total: decimal.Zero}
	for _, reservation := range dataset.Reservations {
		if !reservation.HasDayIn(period) {
			continue
		}
		report.Items = append(report.Items, reservation)
		report.Total = report.Total.Add(reservation.TotalPrice)
	}
	report.Count = len(report.Items)
	return report
}

// ReservationView is a reservation with its car and customer resolved.
type ReservationView struct {
	ledger.Reservation
	Customer *ledger.Customer `json:"customer,omitempty"`
	Car      *ledger.Car      `json:"car,omitempty"`
}

// MarshalJSON writes the reservation fields at the top level, next to the
// resolved customer and car.
func (view ReservationView) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(view.Reservation)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	if view.Customer != nil {
		if fields["customer"], err = json.Marshal(view.Customer); err != nil {
			return nil, err
		}
	}
	if view.Car != nil {
		if fields["car"], err = json.Marshal(view.Car); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// DashboardStats is the front page summary for one day.
type DashboardStats struct {
	CarsInUse         int               `json:"carsInUse"`
	CarsDueForReturn  int               `json:"carsDueForReturn"`
	FreeCars          int               `json:"freeCars"`
	TodaysRevenue     decimal.Decimal   `json:"todaysRevenue"`
	DueTodayList      []ReservationView `json:"dueTodayList"`
	StartingTodayList []ReservationView `json:"startingTodayList"`
}

// Dashboard summarizes today: booked reservations covering it, reservations
// whose last or first day it is, free cars, and the day prices of reservations
// starting today.
func Dashboard(dataset Dataset, today ledger.Date) DashboardStats {
	stats := DashboardStats{
		TodaysRevenue:     decimal.Zero,
		DueTodayList:      []ReservationView{},
		StartingTodayList: []ReservationView{},
	}
	for _, reservation := range dataset.Reservations {
		firstDay, hasDays := reservation.FirstDay()
		if !hasDays {
			continue
		}
		lastDay, _ := reservation.LastDay()
		if reservation.Status == ledger.ReservationStatusBooked && !firstDay.After(today) && !lastDay.Before(today) {
			stats.CarsInUse++
		}
		if lastDay == today {
			stats.DueTodayList = append(stats.DueTodayList, dataset.view(reservation))
		}
		if firstDay == today {
			stats.StartingTodayList = append(stats.StartingTodayList, dataset.view(reservation))
			if index := ledger.FindDay(reservation.Days, today); index >= 0 {
				stats.TodaysRevenue = stats.TodaysRevenue.Add(reservation.Days[index].Price)
			}
		}
	}
	for _, car := range dataset.Cars {
		if car.Status == ledger.CarStatusFree {
			stats.FreeCars++
		}
	}
	stats.CarsDueForReturn = len(stats.DueTodayList)
	return stats
}

// EventProps carries the reservation details shown in a calendar popup.
type EventProps struct {
	Notes      string          `json:"notes"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsPaid     bool            `json:"isPaid"`
}

// CalendarEvent is one reservation on the booking calendar. End is exclusive.
type CalendarEvent struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Start         ledger.Date `json:"start"`
	End           ledger.Date `json:"end"`
	Color         string      `json:"color"`
	ExtendedProps EventProps  `json:"extendedProps"`
}

// CalendarEvents renders every reservation that has ledger days as the span
// [first day, last day + 1), titled "brand model (plate) - first name".
func CalendarEvents(dataset Dataset) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(dataset.Reservations))
	for _, reservation := range dataset.Reservations {
		firstDay, hasDays := reservation.FirstDay()
		if !hasDays {
			continue
		}
		lastDay, _ := reservation.LastDay()
		car, _ := dataset.car(reservation.CarID)
		customer, _ := dataset.customer(reservation.CustomerID)
		events = append(events, CalendarEvent{
			ID:    reservation.ID,
			Title: fmt.Sprintf("%s - %s", car.DisplayName(), customer.FirstName),
			Start: firstDay,
			End:   lastDay.AddDays(1),
			Color: eventColor(reservation.Status),
			ExtendedProps: EventProps{
				Notes:      reservation.Notes,
				TotalPrice: reservation.TotalPrice,
				IsPaid:     reservation.IsPaid,
			},
		})
	}
	return events
}

func eventColor(status ledger.ReservationStatus) string {
	switch status {
	case ledger.ReservationStatusCompleted:
		return ColorCompleted
	case ledger.ReservationStatusCanceled:
		return ColorCanceled
	default:
		return ColorBooked
	}
}

func (dataset Dataset) view(reservation ledger.Reservation) ReservationView {
	view := ReservationView{Reservation: reservation}
	if customer, found := dataset.customer(reservation.CustomerID); found {
		view.Customer = &customer
	}
	if car, found := dataset.car(reservation.CarID); found {
		view.Car = &car
	}
	return view
}
