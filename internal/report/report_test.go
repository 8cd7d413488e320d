package report

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
)

const timezoneBaku = "Asia/Baku"

type dayFixture struct {
	price string
	paid  string
}

func mustDate(test *testing.T, raw string) ledger.Date {
	test.Helper()
	date, err := ledger.ParseDate(raw)
	if err != nil {
		test.Fatalf("parse date %q: %v", raw, err)
	}
	return date
}

func mustDecimal(test *testing.T, raw string) decimal.Decimal {
	test.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		test.Fatalf("parse decimal %q: %v", raw, err)
	}
	return value
}

func assertAmount(test *testing.T, label string, got decimal.Decimal, want string) {
	test.Helper()
	if !got.Equal(mustDecimal(test, want)) {
		test.Fatalf("%s: got %s want %s", label, got.String(), want)
	}
}

func reservationFixture(test *testing.T, id string, carID string, customerID string, status ledger.ReservationStatus, firstDay string, days ...dayFixture) ledger.Reservation {
	test.Helper()
	calendar := ledger.MustCalendar(timezoneBaku)
	reservation := ledger.Reservation{
		ID:         id,
		CarID:      carID,
		CustomerID: customerID,
		Status:     status,
		Days:       []ledger.DayEntry{},
	}
	start := mustDate(test, firstDay)
	for offset, day := range days {
		entry := ledger.NewDayEntry(start.AddDays(offset), mustDecimal(test, day.price), "")
		entry.Paid = mustDecimal(test, day.paid)
		reservation.Days = append(reservation.Days, entry)
	}
	if len(days) > 0 {
		reservation.StartAt = calendar.Midnight(start).Add(10 * time.Hour)
		reservation.EndAt = calendar.Midnight(start.AddDays(len(days)))
	}
	ledger.Recalculate(&reservation)
	return reservation
}

func fleetDataset(test *testing.T) Dataset {
	test.Helper()
	firstReservation := reservationFixture(test, "res-1", "car-1", "customer-1", ledger.ReservationStatusCompleted, "2024-03-30",
		dayFixture{"100", "100"}, dayFixture{"100", "40"}, dayFixture{"100", "30"})
	firstReservation.CreatedAt = time.Date(2024, time.March, 29, 10, 0, 0, 0, time.UTC)
	thirdReservation := reservationFixture(test, "res-3", "car-2", "customer-1", ledger.ReservationStatusBooked, "2024-03-15",
		dayFixture{"80", "80"}, dayFixture{"80", "0"})
	thirdReservation.CreatedAt = time.Date(2024, time.March, 31, 22, 0, 0, 0, time.UTC)
	return Dataset{
		Reservations: []ledger.Reservation{
			firstReservation,
			reservationFixture(test, "res-2", "car-1", "customer-2", ledger.ReservationStatusCanceled, "2024-03-10", dayFixture{"50", "50"}),
			thirdReservation,
			reservationFixture(test, "res-4", "car-9", "customer-2", ledger.ReservationStatusBooked, "2024-03-01"),
		},
		Cars: []ledger.Car{
			{ID: "car-1", Brand: "Toyota", Model: "Camry", Plate: "10-AA-100", Status: ledger.CarStatusFree},
			{ID: "car-2", Brand: "Kia", Model: "Rio", Plate: "20-BB-200", Status: ledger.CarStatusReserved},
		},
		Customers: []ledger.Customer{
			{ID: "customer-1", FirstName: "Ali", LastName: "Aliyev", CreatedAt: time.Date(2024, time.March, 14, 21, 30, 0, 0, time.UTC)},
			{ID: "customer-2", FirstName: "Leyla", LastName: "Mammadova"},
		},
		Fines: []ledger.Fine{
			{ID: "fine-1", CarID: "car-1", CustomerID: "customer-1", Amount: mustDecimal(test, "50"), IsPaid: true, Date: mustDate(test, "2024-03-20")},
			{ID: "fine-2", CarID: "car-1", CustomerID: "customer-2", Amount: mustDecimal(test, "30"), AmountPaid: mustDecimal(test, "10"), Date: mustDate(test, "2024-03-21")},
			{ID: "fine-3", CarID: "car-2", CustomerID: "customer-1", Amount: mustDecimal(test, "99"), Date: mustDate(test, "2024-04-02")},
		},
		Incomes: []ledger.Income{
			{ID: "income-1", Amount: mustDecimal(test, "200"), Date: mustDate(test, "2024-03-05")},
			{ID: "income-2", Amount: mustDecimal(test, "70"), Date: mustDate(test, "2024-04-01")},
		},
		AdminExpenses: []ledger.Expense{
			{ID: "admin-1", Title: "rent", Amount: mustDecimal(test, "40"), When: mustDate(test, "2024-03-03")},
			{ID: "admin-2", Title: "paper", Amount: mustDecimal(test, "15"), CreatedAt: time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)},
		},
		CarExpenses: []ledger.Expense{
			{ID: "car-expense-1", CarID: "car-1", Title: "oil", Amount: mustDecimal(test, "60"), When: mustDate(test, "2024-03-12")},
			{ID: "car-expense-2", CarID: "car-2", Title: "tyres", Amount: mustDecimal(test, "25"), When: mustDate(test, "2024-03-28")},
			{ID: "car-expense-3", CarID: "car-1", Title: "wash", Amount: mustDecimal(test, "10"), When: mustDate(test, "2024-04-01")},
		},
		Incidents: []ledger.Incident{
			{ID: "incident-1", Date: mustDate(test, "2024-04-01"), Description: "scratch"},
		},
	}
}

func marchPeriod(test *testing.T) ledger.Period {
	test.Helper()
	period, err := ledger.ParseMonth("2024-03")
	if err != nil {
		test.Fatalf("parse month: %v", err)
	}
	return period
}

func TestFinancialsSeparatesCashAccrualAndDebt(test *testing.T) {
	test.Parallel()
	report := Financials(fleetDataset(test), marchPeriod(test))
	kpis := report.KPIs

	assertAmount(test, "expected reservations", kpis.ExpectedReservations, "360")
	assertAmount(test, "recognized reservations", kpis.RecognizedReservations, "220")
	assertAmount(test, "pending reservations", kpis.PendingReservations, "140")
	assertAmount(test, "expected fines", kpis.ExpectedFines, "80")
	assertAmount(test, "recognized fines", kpis.RecognizedFines, "50")
	assertAmount(test, "pending fines", kpis.PendingFines, "20")
	assertAmount(test, "incomes", kpis.RecognizedIncomes, "200")
	assertAmount(test, "admin costs", kpis.AdminCosts, "40")
	assertAmount(test, "car costs", kpis.CarCosts, "85")
	assertAmount(test, "total recognized", kpis.TotalRecognized, "470")
	assertAmount(test, "total expenses", kpis.TotalExpenses, "125")
	assertAmount(test, "net", kpis.Net, "345")
	assertAmount(test, "total expected", kpis.TotalExpected, "640")
	assertAmount(test, "total pending", kpis.TotalPending, "160")

	if len(report.PaidDays) != 2 || len(report.PendingDays) != 2 {
		test.Fatalf("unexpected day lines: paid=%d pending=%d", len(report.PaidDays), len(report.PendingDays))
	}
	if len(report.PaidFines) != 1 || len(report.PendingFines) != 1 || len(report.Incomes) != 1 {
		test.Fatalf("unexpected listings: %s", spew.Sdump(report.PaidFines, report.PendingFines, report.Incomes))
	}
	assertAmount(test, "paid fine amount", report.PaidFines[0].PaidAmount, "50")
	for _, line := range append(report.PaidDays, report.PendingDays...) {
		if line.ReservationID == "res-2" {
			test.Fatalf("cancelled reservation leaked into report: %s", spew.Sdump(line))
		}
	}
}

func TestFinancialsIsIdempotent(test *testing.T) {
	test.Parallel()
	dataset := fleetDataset(test)
	before := spew.Sdump(dataset)
	period := marchPeriod(test)

	first := Financials(dataset, period)
	second := Financials(dataset, period)
	if !reflect.DeepEqual(first, second) {
		test.Fatalf("reports differ:\n%s\n%s", spew.Sdump(first.KPIs), spew.Sdump(second.KPIs))
	}
	if after := spew.Sdump(dataset); after != before {
		test.Fatalf("dataset mutated by report:\n%s", after)
	}
}

func TestBuildDailySummaryUsesLedgerCalendar(test *testing.T) {
	test.Parallel()
	calendar := ledger.MustCalendar(timezoneBaku)
	summary := BuildDailySummary(fleetDataset(test), calendar, mustDate(test, "2024-04-01"))

	assertAmount(test, "reservation revenue", summary.ReservationRevenue, "30")
	assertAmount(test, "fine revenue", summary.FineRevenue, "0")
	assertAmount(test, "other income", summary.OtherIncome, "70")
	assertAmount(test, "total revenue", summary.TotalRevenue, "100")
	assertAmount(test, "admin expenses", summary.AdminExpenses, "15")
	assertAmount(test, "car expenses", summary.CarExpenses, "10")
	assertAmount(test, "net", summary.NetProfit, "75")
	if summary.NewReservations != 1 {
		test.Fatalf("expected the reservation created at 02:00 local time to count, got %d", summary.NewReservations)
	}
	if summary.NewCustomers != 0 || summary.NewFines != 0 || summary.NewIncidents != 1 || summary.NewIncomes != 1 {
		test.Fatalf("unexpected counts: %s", spew.Sdump(summary))
	}

	customerDay := BuildDailySummary(fleetDataset(test), calendar, mustDate(test, "2024-03-15"))
	if customerDay.NewCustomers != 1 {
		test.Fatalf("expected customer created 21:30 UTC to land on the next local day, got %d", customerDay.NewCustomers)
	}
	assertAmount(test, "paid day revenue", customerDay.ReservationRevenue, "80")
}

func TestSingleCarMonthlyRestrictsToMonth(test *testing.T) {
	test.Parallel()
	report := SingleCarMonthly(fleetDataset(test), "car-1", marchPeriod(test))

	if report.Meta.Month != "2024-03" || report.Meta.CarName != "Toyota Camry (10-AA-100)" {
		test.Fatalf("unexpected meta: %+v", report.Meta)
	}
	if len(report.Lists.Reservations) != 1 {
		test.Fatalf("expected only the non-cancelled reservation, got %s", spew.Sdump(report.Lists.Reservations))
	}
	line := report.Lists.Reservations[0]
	if line.ID != "res-1" || line.DaysCount != 2 || line.CustomerName != "Ali Aliyev" {
		test.Fatalf("unexpected reservation line: %+v", line)
	}
	assertAmount(test, "line income", line.TotalIncome, "200")
	assertAmount(test, "line paid", line.TotalPaid, "140")
	assertAmount(test, "line remaining", line.Remaining, "60")

	assertAmount(test, "revenue", report.Financials.Revenue, "200")
	assertAmount(test, "expense", report.Financials.Expense, "60")
	assertAmount(test, "fines total", report.Financials.FinesTotal, "80")
	assertAmount(test, "fines paid", report.Financials.FinesPaid, "10")
	assertAmount(test, "net profit", report.Financials.NetProfit, "140")
	if len(report.Lists.Expenses) != 1 || len(report.Lists.Fines) != 2 {
		test.Fatalf("unexpected lists: %s", spew.Sdump(report.Lists))
	}
	if report.Lists.Fines[0].ID != "fine-1" {
		test.Fatalf("fines not sorted by date: %s", spew.Sdump(report.Lists.Fines))
	}
}

func TestCarPopularityCountsAllStatusesOfKnownCars(test *testing.T) {
	test.Parallel()
	popularity := CarPopularity(fleetDataset(test))
	expectedLabels := []string{"Toyota Camry (10-AA-100)", "Kia Rio (20-BB-200)"}
	expectedData := []int{2, 1}
	if !reflect.DeepEqual(popularity.Labels, expectedLabels) || !reflect.DeepEqual(popularity.Data, expectedData) {
		test.Fatalf("unexpected popularity: %+v", popularity)
	}
}

func TestCarProfitabilitySortsByProfit(test *testing.T) {
	test.Parallel()
	rows := CarProfitability(fleetDataset(test))
	if len(rows) != 2 {
		test.Fatalf("expected one row per car, got %d", len(rows))
	}
	if rows[0].CarName != "Toyota Camry (10-AA-100)" {
		test.Fatalf("unexpected order: %s", spew.Sdump(rows))
	}
	assertAmount(test, "toyota revenue", rows[0].TotalRevenue, "300")
	assertAmount(test, "toyota expense", rows[0].TotalExpense, "70")
	assertAmount(test, "toyota profit", rows[0].Profit, "230")
	assertAmount(test, "kia revenue", rows[1].TotalRevenue, "0")
	assertAmount(test, "kia profit", rows[1].Profit, "-25")
}

func TestBestCustomersKeepsCompletedRenters(test *testing.T) {
	test.Parallel()
	rows := BestCustomers(fleetDataset(test))
	if len(rows) != 1 || rows[0].CustomerName != "Ali Aliyev" || rows[0].RentalCount != 1 {
		test.Fatalf("unexpected best customers: %s", spew.Sdump(rows))
	}
	assertAmount(test, "revenue", rows[0].TotalRevenue, "300")
}

func TestOccupancyRoundsPercentage(test *testing.T) {
	test.Parallel()
	march := Occupancy(fleetDataset(test), marchPeriod(test))
	if march.DaysInMonth != 31 || len(march.Report) != 2 {
		test.Fatalf("unexpected occupancy shape: %s", spew.Sdump(march))
	}
	for _, row := range march.Report {
		if row.RentedDays != 2 {
			test.Fatalf("%s: expected 2 rented days, got %d", row.CarName, row.RentedDays)
		}
		assertAmount(test, row.CarName, row.OccupancyPercentage, "6.5")
	}

	april, err := ledger.ParseMonth("2024-04")
	if err != nil {
		test.Fatalf("parse month: %v", err)
	}
	aprilReport := Occupancy(fleetDataset(test), april)
	if aprilReport.DaysInMonth != 30 {
		test.Fatalf("expected 30 days in April, got %d", aprilReport.DaysInMonth)
	}
	assertAmount(test, "toyota april", aprilReport.Report[0].OccupancyPercentage, "3.3")
}

func TestAverageDuration(test *testing.T) {
	test.Parallel()
	completed := ledger.ReservationStatusCompleted
	testCases := []struct {
		name         string
		reservations []ledger.Reservation
		expected     string
	}{
		{
			name:         "no completed reservations",
			reservations: []ledger.Reservation{reservationFixture(test, "a", "car-1", "c", ledger.ReservationStatusBooked, "2024-03-01", dayFixture{"10", "0"})},
			expected:     "0",
		},
		{
			name: "half day average",
			reservations: []ledger.Reservation{
				reservationFixture(test, "a", "car-1", "c", completed, "2024-03-01", dayFixture{"10", "0"}, dayFixture{"10", "0"}, dayFixture{"10", "0"}),
				reservationFixture(test, "b", "car-1", "c", completed, "2024-03-10", dayFixture{"10", "0"}, dayFixture{"10", "0"}, dayFixture{"10", "0"}, dayFixture{"10", "0"}),
			},
			expected: "3.5",
		},
		{
			name: "rounded to one decimal",
			reservations: []ledger.Reservation{
				reservationFixture(test, "a", "car-1", "c", completed, "2024-03-01", dayFixture{"10", "0"}),
				reservationFixture(test, "b", "car-1", "c", completed, "2024-03-05", dayFixture{"10", "0"}),
				reservationFixture(test, "c", "car-1", "c", completed, "2024-03-09", dayFixture{"10", "0"}, dayFixture{"10", "0"}),
				reservationFixture(test, "d", "car-1", "c", ledger.ReservationStatusCanceled, "2024-03-20", dayFixture{"10", "0"}),
			},
			expected: "1.3",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			duration := AverageDuration(Dataset{Reservations: testCase.reservations})
			assertAmount(test, testCase.name, duration.AverageDuration, testCase.expected)
		})
	}
}

func TestRevenueByBrandUsesDerivedTotals(test *testing.T) {
	test.Parallel()
	dataset := fleetDataset(test)
	dataset.Cars = append(dataset.Cars, ledger.Car{ID: "car-3", Brand: "Kia", Model: "Sportage", Plate: "30-CC-300"})
	dataset.Reservations = append(dataset.Reservations,
		reservationFixture(test, "res-5", "car-3", "customer-2", ledger.ReservationStatusCompleted, "2024-02-01",
			dayFixture{"200", "0"}, dayFixture{"200", "0"}))

	rows := RevenueByBrand(dataset)
	if len(rows) != 2 || rows[0].Brand != "Kia" || rows[1].Brand != "Toyota" {
		test.Fatalf("unexpected brands: %s", spew.Sdump(rows))
	}
	assertAmount(test, "kia", rows[0].TotalRevenue, "400")
	assertAmount(test, "toyota", rows[1].TotalRevenue, "300")
}

func TestRevenueIncludesEveryStatusTouchingPeriod(test *testing.T) {
	test.Parallel()
	report := Revenue(fleetDataset(test), marchPeriod(test))
	if report.Count != 3 || len(report.Items) != 3 {
		test.Fatalf("expected three reservations, got %d", report.Count)
	}
	assertAmount(test, "total", report.Total, "510")

	dayReport := Revenue(fleetDataset(test), ledger.DayPeriod(mustDate(test, "2024-04-01")))
	if dayReport.Count != 1 || dayReport.Items[0].ID != "res-1" {
		test.Fatalf("unexpected day revenue: %s", spew.Sdump(dayReport))
	}
}

func TestDashboardSummarizesToday(test *testing.T) {
	test.Parallel()
	dataset := Dataset{
		Reservations: []ledger.Reservation{
			reservationFixture(test, "spanning", "car-1", "customer-1", ledger.ReservationStatusBooked, "2024-03-31",
				dayFixture{"50", "0"}, dayFixture{"50", "0"}, dayFixture{"50", "0"}),
			reservationFixture(test, "single", "car-2", "customer-2", ledger.ReservationStatusBooked, "2024-04-01", dayFixture{"90", "0"}),
			reservationFixture(test, "returned", "car-3", "customer-1", ledger.ReservationStatusCompleted, "2024-03-30",
				dayFixture{"40", "40"}, dayFixture{"40", "40"}, dayFixture{"40", "40"}),
			reservationFixture(test, "empty", "car-3", "customer-1", ledger.ReservationStatusBooked, "2024-04-01"),
		},
		Cars: []ledger.Car{
			{ID: "car-1", Status: ledger.CarStatusReserved},
			{ID: "car-2", Status: ledger.CarStatusReserved},
			{ID: "car-3", Status: ledger.CarStatusFree},
			{ID: "car-4", Status: ledger.CarStatusService},
		},
		Customers: []ledger.Customer{{ID: "customer-1", FirstName: "Ali"}},
	}

	stats := Dashboard(dataset, mustDate(test, "2024-04-01"))
	if stats.CarsInUse != 2 || stats.CarsDueForReturn != 2 || stats.FreeCars != 1 {
		test.Fatalf("unexpected counters: %s", spew.Sdump(stats))
	}
	if len(stats.StartingTodayList) != 1 || stats.StartingTodayList[0].Reservation.ID != "single" {
		test.Fatalf("unexpected starting list: %s", spew.Sdump(stats.StartingTodayList))
	}
	if stats.StartingTodayList[0].Customer != nil || stats.StartingTodayList[0].Car == nil {
		test.Fatalf("expected car resolved and unknown customer omitted: %s", spew.Sdump(stats.StartingTodayList[0]))
	}
	assertAmount(test, "todays revenue", stats.TodaysRevenue, "90")
}

func TestReservationViewFlattensReservationFields(test *testing.T) {
	test.Parallel()
	dataset := Dataset{
		Reservations: []ledger.Reservation{
			reservationFixture(test, "res-1", "car-1", "customer-1", ledger.ReservationStatusBooked, "2024-04-01", dayFixture{"90", "0"}),
		},
		Cars:      []ledger.Car{{ID: "car-1", Brand: "Kia"}},
		Customers: []ledger.Customer{{ID: "customer-1", FirstName: "Ali"}},
	}

	encoded, err := json.Marshal(Dashboard(dataset, mustDate(test, "2024-04-01")).StartingTodayList)
	if err != nil {
		test.Fatalf("marshal views: %v", err)
	}
	var views []map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &views); err != nil {
		test.Fatalf("unmarshal views: %v", err)
	}
	if len(views) != 1 {
		test.Fatalf("expected one view, got %s", encoded)
	}
	view := views[0]
	if _, nested := view["reservation"]; nested {
		test.Fatalf("reservation must not be nested: %s", encoded)
	}
	if string(view["id"]) != `"res-1"` || string(view["carId"]) != `"car-1"` || string(view["status"]) != `"BOOKED"` {
		test.Fatalf("expected reservation fields at the top level: %s", encoded)
	}
	var customer ledger.Customer
	if err := json.Unmarshal(view["customer"], &customer); err != nil || customer.FirstName != "Ali" {
		test.Fatalf("expected resolved customer: %s", encoded)
	}
	var car ledger.Car
	if err := json.Unmarshal(view["car"], &car); err != nil || car.Brand != "Kia" {
		test.Fatalf("expected resolved car: %s", encoded)
	}
	if _, hasDays := view["days"]; !hasDays {
		test.Fatalf("expected day ledger in the view: %s", encoded)
	}
}

func TestCalendarEventsSpanHalfOpenDays(test *testing.T) {
	test.Parallel()
	events := CalendarEvents(fleetDataset(test))
	if len(events) != 3 {
		test.Fatalf("expected reservations with days only, got %d", len(events))
	}
	byID := make(map[string]CalendarEvent, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}

	completed := byID["res-1"]
	if completed.Title != "Toyota Camry (10-AA-100) - Ali" {
		test.Fatalf("unexpected title %q", completed.Title)
	}
	if completed.Start != mustDate(test, "2024-03-30") || completed.End != mustDate(test, "2024-04-02") {
		test.Fatalf("unexpected span %s..%s", completed.Start, completed.End)
	}
	if completed.Color != ColorCompleted || byID["res-2"].Color != ColorCanceled || byID["res-3"].Color != ColorBooked {
		test.Fatalf("unexpected colours: %s", spew.Sdump(events))
	}
	assertAmount(test, "total price", completed.ExtendedProps.TotalPrice, "300")
}
