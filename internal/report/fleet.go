package report

import (
	"sort"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CarMonthMeta identifies a single-car monthly report.
type CarMonthMeta struct {
	CarID   string `json:"carId"`
	Month   string `json:"month"`
	CarName string `json:"carName,omitempty"`
}

// CarMonthFinancials are the money totals of a single-car monthly report.
type CarMonthFinancials struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Expense    decimal.Decimal `json:"expense"`
	FinesTotal decimal.Decimal `json:"finesTotal"`
	FinesPaid  decimal.Decimal `json:"finesPaid"`
	NetProfit  decimal.Decimal `json:"netProfit"`
}

// CarMonthReservation is the part of a reservation that falls into the month.
type CarMonthReservation struct {
	ID           string                   `json:"id"`
	CustomerName string                   `json:"customerName"`
	StartDate    time.Time                `json:"startDate"`
	EndDate      time.Time                `json:"endDate"`
	DaysCount    int                      `json:"daysCount"`
	TotalIncome  decimal.Decimal          `json:"totalIncome"`
	TotalPaid    decimal.Decimal          `json:"totalPaid"`
	Remaining    decimal.Decimal          `json:"remaining"`
	Status       ledger.ReservationStatus `json:"status"`
}

// CarMonthLists itemizes a single-car monthly report.
type CarMonthLists struct {
	Reservations []CarMonthReservation `json:"reservations"`
	Expenses     []ledger.Expense      `json:"expenses"`
	Fines        []ledger.Fine         `json:"fines"`
}

// CarMonthReport is the detailed monthly statement of one car.
type CarMonthReport struct {
	Meta       CarMonthMeta       `json:"meta"`
	Financials CarMonthFinancials `json:"financials"`
	Lists      CarMonthLists      `json:"lists"`
}

// SingleCarMonthly restricts every non-cancelled reservation of the car to its
// days inside month and adds the car's expenses and fines dated in the month.
func SingleCarMonthly(dataset Dataset, carID string, month ledger.Period) CarMonthReport {
	report := CarMonthReport{
		Meta: CarMonthMeta{CarID: carID, Month: month.Start.MonthKey()},
		Lists: CarMonthLists{
			Reservations: []CarMonthReservation{},
			Expenses:     []ledger.Expense{},
			Fines:        []ledger.Fine{},
		},
	}
	if car, found := dataset.car(carID); found {
		report.Meta.CarName = car.DisplayName()
	}

	for _, reservation := range dataset.Reservations {
		if reservation.CarID != carID || reservation.Status == ledger.ReservationStatusCanceled {
			continue
		}
		line := CarMonthReservation{
			ID:        reservation.ID,
			StartDate: reservation.StartAt,
			EndDate:   reservation.EndAt,
			Status:    reservation.Status,
		}
		for _, entry := range reservation.Days {
			if !month.Contains(entry.Date) {
				continue
			}
			line.DaysCount++
			line.TotalIncome = line.TotalIncome.Add(entry.Price)
			line.TotalPaid = line.TotalPaid.Add(entry.Paid)
		}
		if line.DaysCount == 0 {
			continue
		}
		line.Remaining = line.TotalIncome.Sub(line.TotalPaid)
		if customer, found := dataset.customer(reservation.CustomerID); found {
			line.CustomerName = customer.FullName()
		}
		report.Financials.Revenue = report.Financials.Revenue.Add(line.TotalIncome)
		report.Lists.Reservations = append(report.Lists.Reservations, line)
	}

	for _, expense := range dataset.CarExpenses {
		if expense.CarID == carID && inPeriod(month, expense.EffectiveDate()) {
			report.Financials.Expense = report.Financials.Expense.Add(expense.Amount)
			report.Lists.Expenses = append(report.Lists.Expenses, expense)
		}
	}
	for _, fine := range dataset.Fines {
		if fine.CarID == carID && inPeriod(month, fine.Date) {
			report.Financials.FinesTotal = report.Financials.FinesTotal.Add(fine.Amount)
			report.Financials.FinesPaid = report.Financials.FinesPaid.Add(fine.AmountPaid)
			report.Lists.Fines = append(report.Lists.Fines, fine)
		}
	}
	report.Financials.NetProfit = report.Financials.Revenue.Sub(report.Financials.Expense)

	sort.SliceStable(report.Lists.Reservations, func(left int, right int) bool {
		return report.Lists.Reservations[left].StartDate.Before(report.Lists.Reservations[right].StartDate)
	})
	sort.SliceStable(report.Lists.Expenses, func(left int, right int) bool {
		return report.Lists.Expenses[left].EffectiveDate().Before(report.Lists.Expenses[right].EffectiveDate())
	})
	sort.SliceStable(report.Lists.Fines, func(left int, right int) bool {
		return report.Lists.Fines[left].Date.Before(report.Lists.Fines[right].Date)
	})
	return report
}

// Popularity is a chart series of reservation counts per car.
type Popularity struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// CarPopularity counts reservations of every status per car, in order of the
// car's first reservation. Reservations of unknown cars are left out.
func CarPopularity(dataset Dataset) Popularity {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, reservation := range dataset.Reservations {
		if _, seen := counts[reservation.CarID]; !seen {
			order = append(order, reservation.CarID)
		}
		counts[reservation.CarID]++
	}
	popularity := Popularity{Labels: []string{}, Data: []int{}}
	for _, carID := range order {
		car, found := dataset.car(carID)
		if !found {
			continue
		}
		popularity.Labels = append(popularity.Labels, car.DisplayName())
		popularity.Data = append(popularity.Data, counts[carID])
	}
	return popularity
}

// CarProfit is one row of the profitability report.
type CarProfit struct {
	CarName      string          `json:"carName"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Profit       decimal.Decimal `json:"profit"`
}

// CarProfitability sets the day prices of each car's completed reservations
// against all of its expenses, most profitable first.
func CarProfitability(dataset Dataset) []CarProfit {
	rows := make([]CarProfit, 0, len(dataset.Cars))
	for _, car := range dataset.Cars {
		revenue := decimal.Zero
		for _, reservation := range dataset.Reservations {
			if reservation.CarID == car.ID && reservation.Status == ledger.ReservationStatusCompleted {
				revenue = revenue.Add(dayPrices(reservation))
			}
		}
		expense := sumExpenses(dataset.CarExpenses, func(expense ledger.Expense) bool {
			return expense.CarID == car.ID
		})
		rows = append(rows, CarProfit{
			CarName:      car.DisplayName(),
			TotalRevenue: revenue,
			TotalExpense: expense,
			Profit:       revenue.Sub(expense),
		})
	}
	sort.SliceStable(rows, func(left int, right int) bool {
		return rows[left].Profit.GreaterThan(rows[right].Profit)
	})
	return rows
}

// CustomerRevenue is one row of the best-customers report.
type CustomerRevenue struct {
	CustomerName string          `json:"customerName"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	RentalCount  int             `json:"rentalCount"`
}

// BestCustomers ranks customers with at least one completed rental by the day
// prices of their completed reservations.
func BestCustomers(dataset Dataset) []CustomerRevenue {
	rows := make([]CustomerRevenue, 0)
	for _, customer := range dataset.Customers {
		row := CustomerRevenue{CustomerName: customer.FullName(), TotalRevenue: decimal.Zero}
		for _, reservation := range dataset.Reservations {
			if reservation.CustomerID != customer.ID || reservation.Status != ledger.ReservationStatusCompleted {
				continue
			}
			row.RentalCount++
			row.TotalRevenue = row.TotalRevenue.Add(dayPrices(reservation))
		}
		if row.RentalCount > 0 {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(left int, right int) bool {
		return rows[left].TotalRevenue.GreaterThan(rows[right].TotalRevenue)
	})
	return rows
}

// CarOccupancy is one row of the occupancy report.
type CarOccupancy struct {
	CarName             string          `json:"carName"`
	RentedDays          int             `json:"rentedDays"`
	OccupancyPercentage decimal.Decimal `json:"occupancyPercentage"`
}

// OccupancyReport lists the occupancy of every car for a month.
type OccupancyReport struct {
	Report      []CarOccupancy `json:"report"`
	DaysInMonth int            `json:"daysInMonth"`
}

// Occupancy counts each car's non-cancelled ledger days inside month as a
// percentage of the month's length, rounded to one decimal place.
func Occupancy(dataset Dataset, month ledger.Period) OccupancyReport {
	daysInMonth := month.Days()
	report := OccupancyReport{Report: make([]CarOccupancy, 0, len(dataset.Cars)), DaysInMonth: daysInMonth}
	for _, car := range dataset.Cars {
		rented := 0
		for _, reservation := range dataset.Reservations {
			if reservation.CarID != car.ID || reservation.Status == ledger.ReservationStatusCanceled {
				continue
			}
			for _, entry := range reservation.Days {
				if inPeriod(month, entry.Date) {
					rented++
				}
			}
		}
		percentage := decimal.NewFromInt(int64(rented)).Mul(hundred).Div(decimal.NewFromInt(int64(daysInMonth))).Round(1)
		report.Report = append(report.Report, CarOccupancy{
			CarName:             car.DisplayName(),
			RentedDays:          rented,
			OccupancyPercentage: percentage,
		})
	}
	return report
}

// Duration is the mean rental length in days.
type Duration struct {
	AverageDuration decimal.Decimal `json:"averageDuration"`
}

// AverageDuration is the mean day count of completed reservations, rounded to
// one decimal place, or zero when there are none.
func AverageDuration(dataset Dataset) Duration {
	count := 0
	totalDays := 0
	for _, reservation := range dataset.Reservations {
		if reservation.Status != ledger.ReservationStatusCompleted {
			continue
		}
		count++
		totalDays += len(reservation.Days)
	}
	if count == 0 {
		return Duration{AverageDuration: decimal.Zero}
	}
	average := decimal.NewFromInt(int64(totalDays)).Div(decimal.NewFromInt(int64(count))).Round(1)
	return Duration{AverageDuration: average}
}

// BrandRevenue is one row of the revenue-by-brand report.
type BrandRevenue struct {
	Brand        string          `json:"brand"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// RevenueByBrand sums the derived total price of completed reservations per
// car brand, highest first.
func RevenueByBrand(dataset Dataset) []BrandRevenue {
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, reservation := range dataset.Reservations {
		if reservation.Status != ledger.ReservationStatusCompleted {
			continue
		}
		car, found := dataset.car(reservation.CarID)
		if !found || car.Brand == "" {
			continue
		}
		if _, seen := totals[car.Brand]; !seen {
			order = append(order, car.Brand)
		}
		totals[car.Brand] = totals[car.Brand].Add(reservation.TotalPrice)
	}
	rows := make([]BrandRevenue, 0, len(order))
	for _, brand := range order {
		rows = append(rows, BrandRevenue{Brand: brand, TotalRevenue: totals[brand]})
	}
	sort.SliceStable(rows, func(left int, right int) bool {
		return rows[left].TotalRevenue.GreaterThan(rows[right].TotalRevenue)
	})
	return rows
}

func dayPrices(reservation ledger.Reservation) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range reservation.Days {
		total = total.Add(entry.Price)
	}
	return total
}
