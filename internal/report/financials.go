package report

import (
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// FinancialKPIs holds the cash, accrual and debt figures of a period.
type FinancialKPIs struct {
	ExpectedReservations   decimal.Decimal `json:"expectedReservations"`
	RecognizedReservations decimal.Decimal `json:"recognizedReservations"`
	PendingReservations    decimal.Decimal `json:"pendingReservations"`
	ExpectedFines          decimal.Decimal `json:"expectedFines"`
	RecognizedFines        decimal.Decimal `json:"recognizedFines"`
	PendingFines           decimal.Decimal `json:"pendingFines"`
	RecognizedIncomes      decimal.Decimal `json:"recognizedIncomes"`
	AdminCosts             decimal.Decimal `json:"adminCosts"`
	CarCosts               decimal.Decimal `json:"carCosts"`
	TotalRecognized        decimal.Decimal `json:"totalRecognized"`
	TotalExpenses          decimal.Decimal `json:"totalExpenses"`
	Net                    decimal.Decimal `json:"net"`
	TotalExpected          decimal.Decimal `json:"totalExpected"`
	TotalPending           decimal.Decimal `json:"totalPending"`
}

// DayLine is one ledger day listed in a financial report.
type DayLine struct {
	ReservationID string           `json:"reservationId"`
	Date          ledger.Date      `json:"date"`
	Price         decimal.Decimal  `json:"price"`
	Paid          decimal.Decimal  `json:"paid"`
	Debt          decimal.Decimal  `json:"debt"`
	Status        ledger.DayStatus `json:"status"`
	CustomerID    string           `json:"customerId"`
	CarID         string           `json:"carId"`
}

// PaidFine is a paid fine with the cash it brought in.
type PaidFine struct {
	ledger.Fine
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

// FinancialReport is the period view of the accounting page.
type FinancialReport struct {
	From         ledger.Date     `json:"from"`
	To           ledger.Date     `json:"to"`
	KPIs         FinancialKPIs   `json:"kpi"`
	PaidDays     []DayLine       `json:"paidDays"`
	PendingDays  []DayLine       `json:"pendingDays"`
	PaidFines    []PaidFine      `json:"paidFines"`
	PendingFines []ledger.Fine   `json:"pendingFines"`
	Incomes      []ledger.Income `json:"incomes"`
}

// Financials computes the cash basis (collected money), the accrual basis
// (money owed for the period) and the outstanding debt of period.
// Cancelled reservations contribute nothing.
func Financials(dataset Dataset, period ledger.Period) FinancialReport {
	report := FinancialReport{
		From:         period.Start,
		To:           period.End,
		PaidDays:     []DayLine{},
		PendingDays:  []DayLine{},
		PaidFines:    []PaidFine{},
		PendingFines: []ledger.Fine{},
		Incomes:      []ledger.Income{},
	}
	kpis := &report.KPIs

	for _, reservation := range dataset.Reservations {
		if reservation.Status == ledger.ReservationStatusCanceled {
			continue
		}
		for _, entry := range reservation.Days {
			if !period.Contains(entry.Date) {
				continue
			}
			debt := entry.Debt()
			kpis.ExpectedReservations = kpis.ExpectedReservations.Add(entry.Price)
			kpis.RecognizedReservations = kpis.RecognizedReservations.Add(entry.Paid)
			line := DayLine{
				ReservationID: reservation.ID,
				Date:          entry.Date,
				Price:         entry.Price,
				Paid:          entry.Paid,
				Debt:          debt,
				Status:        entry.Status,
				CustomerID:    reservation.CustomerID,
				CarID:         reservation.CarID,
			}
			switch {
			case debt.Sign() > 0:
				kpis.PendingReservations = kpis.PendingReservations.Add(debt)
				report.PendingDays = append(report.PendingDays, line)
			case entry.Paid.Sign() > 0:
				report.PaidDays = append(report.PaidDays, line)
			}
		}
	}

	for _, fine := range dataset.Fines {
		if fine.Date.IsZero() || !period.Contains(fine.Date) {
			continue
		}
		kpis.ExpectedFines = kpis.ExpectedFines.Add(fine.Amount)
		if fine.IsPaid {
			paidAmount := fine.RecognizedAmount()
			kpis.RecognizedFines = kpis.RecognizedFines.Add(paidAmount)
			report.PaidFines = append(report.PaidFines, PaidFine{Fine: fine, PaidAmount: paidAmount})
			continue
		}
		kpis.PendingFines = kpis.PendingFines.Add(fine.Debt())
		report.PendingFines = append(report.PendingFines, fine)
	}

	for _, income := range dataset.Incomes {
		if income.Date.IsZero() || !period.Contains(income.Date) {
			continue
		}
		kpis.RecognizedIncomes = kpis.RecognizedIncomes.Add(income.Amount)
		report.Incomes = append(report.Incomes, income)
	}

	kpis.AdminCosts = sumExpenses(dataset.AdminExpenses, func(expense ledger.Expense) bool {
		return inPeriod(period, expense.EffectiveDate())
	})
	kpis.CarCosts = sumExpenses(dataset.CarExpenses, func(expense ledger.Expense) bool {
		return inPeriod(period, expense.EffectiveDate())
	})

	kpis.TotalRecognized = ledger.Sum(kpis.RecognizedReservations, kpis.RecognizedFines, kpis.RecognizedIncomes)
	kpis.TotalExpenses = kpis.AdminCosts.Add(kpis.CarCosts)
	kpis.Net = kpis.TotalRecognized.Sub(kpis.TotalExpenses)
	kpis.TotalExpected = ledger.Sum(kpis.ExpectedReservations, kpis.ExpectedFines, kpis.RecognizedIncomes)
	kpis.TotalPending = kpis.PendingReservations.Add(kpis.PendingFines)
	return report
}

// DailySummary is the cash digest of a single day.
type DailySummary struct {
	Date               ledger.Date     `json:"date"`
	ReservationRevenue decimal.Decimal `json:"reservationRevenue"`
	FineRevenue        decimal.Decimal `json:"fineRevenue"`
	OtherIncome        decimal.Decimal `json:"otherIncome"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	AdminExpenses      decimal.Decimal `json:"adminExpenses"`
	CarExpenses        decimal.Decimal `json:"carExpenses"`
	TotalExpense       decimal.Decimal `json:"totalExpense"`
	NetProfit          decimal.Decimal `json:"netProfit"`
	NewReservations    int             `json:"newReservations"`
	NewCustomers       int             `json:"newCustomers"`
	NewFines           int             `json:"newFines"`
	NewIncidents       int             `json:"newIncidents"`
	NewIncomes         int             `json:"newIncomes"`
}

// BuildDailySummary folds everything dated day into a DailySummary.
// Creation timestamps are compared by their calendar day in calendar.
func BuildDailySummary(dataset Dataset, calendar ledger.Calendar, day ledger.Date) DailySummary {
	summary := DailySummary{Date: day}

	for _, reservation := range dataset.Reservations {
		if !reservation.CreatedAt.IsZero() && calendar.DateOf(reservation.CreatedAt) == day {
			summary.NewReservations++
		}
		for _, entry := range reservation.Days {
			if entry.Date == day && entry.Paid.Sign() > 0 {
				summary.ReservationRevenue = summary.ReservationRevenue.Add(entry.Paid)
			}
		}
	}
	for _, fine := range dataset.Fines {
		if fine.Date != day {
			continue
		}
		summary.NewFines++
		summary.FineRevenue = summary.FineRevenue.Add(fine.RecognizedAmount())
	}
	for _, income := range dataset.Incomes {
		if income.Date != day {
			continue
		}
		summary.NewIncomes++
		summary.OtherIncome = summary.OtherIncome.Add(income.Amount)
	}
	for _, customer := range dataset.Customers {
		if !customer.CreatedAt.IsZero() && calendar.DateOf(customer.CreatedAt) == day {
			summary.NewCustomers++
		}
	}
	for _, incident := range dataset.Incidents {
		if incident.Date == day {
			summary.NewIncidents++
		}
	}
	onDay := func(expense ledger.Expense) bool { return expense.EffectiveDate() == day }
	summary.AdminExpenses = sumExpenses(dataset.AdminExpenses, onDay)
	summary.CarExpenses = sumExpenses(dataset.CarExpenses, onDay)

	summary.TotalRevenue = ledger.Sum(summary.ReservationRevenue, summary.FineRevenue, summary.OtherIncome)
	summary.TotalExpense = summary.AdminExpenses.Add(summary.CarExpenses)
	summary.NetProfit = summary.TotalRevenue.Sub(summary.TotalExpense)
	return summary
}

func sumExpenses(expenses []ledger.Expense, include func(ledger.Expense) bool) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		if include(expense) {
			total = total.Add(expense.Amount)
		}
	}
	return total
}

func inPeriod(period ledger.Period, date ledger.Date) bool {
	return !date.IsZero() && period.Contains(date)
}
