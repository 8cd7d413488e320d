package backoffice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	events []notify.Event
}

func (notifier *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	notifier.events = append(notifier.events, event)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 8, 30, 0, 0, time.UTC)
}

func mustService(test *testing.T, options ...Option) (*Service, *store.Repository) {
	test.Helper()
	repository, err := store.NewRepository(store.NewMemoryBackend(), ledger.MustCalendar(ledger.DefaultTimezone))
	require.NoError(test, err)
	sequence := 0
	options = append([]Option{WithIDGenerator(func() string {
		sequence++
		return fmt.Sprintf("id-%d", sequence)
	})}, options...)
	service, err := NewService(repository, ledger.MustCalendar(ledger.DefaultTimezone), fixedClock, options...)
	require.NoError(test, err)
	return service, repository
}

func periodPointer(period ledger.Period) *ledger.Period {
	return &period
}

func TestCarLifecycle(test *testing.T) {
	test.Parallel()
	service, _ := mustService(test)
	ctx := context.Background()

	car, err := service.CreateCar(ctx, CarInput{Brand: "Kia", Model: "Rio", Plate: "77-KR-001", BasePricePerDay: decimal.NewFromInt(45)})
	require.NoError(test, err)
	require.Equal(test, ledger.CarStatusFree, car.Status)
	require.Equal(test, fixedClock(), car.CreatedAt)

	reserved := "RESERVED"
	updated, err := service.UpdateCar(ctx, car.ID, CarPatch{Status: &reserved})
	require.NoError(test, err)
	require.Equal(test, ledger.CarStatusFree, updated.Status, "derived statuses cannot be set by hand")

	serviceStatus := "SERVICE"
	price := decimal.NewFromInt(50)
	updated, err = service.UpdateCar(ctx, car.ID, CarPatch{Status: &serviceStatus, BasePricePerDay: &price})
	require.NoError(test, err)
	require.Equal(test, ledger.CarStatusService, updated.Status)
	require.True(test, updated.BasePricePerDay.Equal(price))

	require.NoError(test, service.DeleteCar(ctx, car.ID))
	require.ErrorIs(test, service.DeleteCar(ctx, car.ID), ledger.ErrNotFound)
	_, err = service.UpdateCar(ctx, car.ID, CarPatch{})
	require.ErrorIs(test, err, ledger.ErrNotFound)

	_, err = service.CreateCar(ctx, CarInput{Model: "Rio"})
	require.ErrorIs(test, err, ledger.ErrValidation)
}

func TestCustomerSearchAndPatch(test *testing.T) {
	test.Parallel()
	service, repository := mustService(test)
	ctx := context.Background()
	require.NoError(test, repository.SaveCustomers(ctx, []ledger.Customer{
		{ID: "c1", FirstName: "Aysel", LastName: "Mammadova", Phone: "+994501112233", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "c2", FirstName: "Rauf", LastName: "Aliyev", Phone: "+994552223344", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}))

	all, err := service.ListCustomers(ctx, "")
	require.NoError(test, err)
	require.Len(test, all, 2)
	require.Equal(test, "c2", all[0].ID)

	matched, err := service.ListCustomers(ctx, "  MAMMAD ")
	require.NoError(test, err)
	require.Len(test, matched, 1)
	require.Equal(test, "c1", matched[0].ID)

	byPhone, err := service.ListCustomers(ctx, "2223")
	require.NoError(test, err)
	require.Len(test, byPhone, 1)
	require.Equal(test, "c2", byPhone[0].ID)

	blacklisted := true
	notes := "late return"
	patched, err := service.UpdateCustomer(ctx, "c1", CustomerPatch{IsBlacklisted: &blacklisted, Notes: &notes})
	require.NoError(test, err)
	require.True(test, patched.IsBlacklisted)
	require.Equal(test, notes, patched.Notes)

	_, err = service.CreateCustomer(ctx, CustomerInput{FirstName: "Only"})
	require.ErrorIs(test, err, ledger.ErrValidation)
	require.ErrorIs(test, service.DeleteCustomer(ctx, "missing"), ledger.ErrNotFound)
}

func TestFinePaymentsAndTotals(test *testing.T) {
	test.Parallel()
	notifier := &recordingNotifier{}
	service, repository := mustService(test, WithNotifier(notifier))
	ctx := context.Background()
	require.NoError(test, repository.SaveCars(ctx, []ledger.Car{{ID: "car-1", Brand: "Kia", Model: "Rio", Plate: "77"}}))

	paid, err := service.CreateFine(ctx, FineInput{CustomerID: "c1", CarID: "car-1", Amount: decimal.NewFromInt(40), Date: "2024-03-02", Reason: "speeding", IsPaid: true})
	require.NoError(test, err)
	require.True(test, paid.AmountPaid.Equal(decimal.NewFromInt(40)))

	open, err := service.CreateFine(ctx, FineInput{CustomerID: "c1", Amount: decimal.NewFromInt(100), Date: "2024-03-05"})
	require.NoError(test, err)
	require.False(test, open.IsPaid)

	partial := decimal.NewFromInt(30)
	open, err = service.UpdateFine(ctx, open.ID, FinePatch{AmountPaid: &partial})
	require.NoError(test, err)
	require.False(test, open.IsPaid)

	list, err := service.ListFines(ctx, FineFilter{CustomerID: "c1", Period: periodPointer(ledger.MonthPeriod(ledger.NewDate(2024, 3, 1)))})
	require.NoError(test, err)
	require.Len(test, list.Items, 2)
	require.Equal(test, open.ID, list.Items[0].ID, "newest fine first")
	require.True(test, list.Total.Equal(decimal.NewFromInt(40)), "only paid fines count, got %s", list.Total)

	isPaid := true
	open, err = service.UpdateFine(ctx, open.ID, FinePatch{IsPaid: &isPaid})
	require.NoError(test, err)
	require.True(test, open.AmountPaid.Equal(decimal.NewFromInt(100)))

	_, err = service.CreateFine(ctx, FineInput{CustomerID: "c1", Date: "2024-03-05"})
	require.ErrorIs(test, err, ledger.ErrValidation)
	require.ErrorIs(test, service.DeleteFine(ctx, "missing"), ledger.ErrNotFound)

	require.Len(test, notifier.events, 2)
	require.Equal(test, notify.KindFine, notifier.events[0].Kind)
	require.Equal(test, "Kia Rio (77)", notifier.events[0].Attributes["car"])
}

func TestExpenseFiltersUseEffectiveDate(test *testing.T) {
	test.Parallel()
	service, repository := mustService(test)
	ctx := context.Background()
	require.NoError(test, repository.SaveCarExpenses(ctx, []ledger.Expense{
		{ID: "e1", CarID: "car-1", Title: "tyres", Amount: decimal.NewFromInt(200), When: ledger.NewDate(2024, 2, 10)},
		{ID: "e2", CarID: "car-1", Title: "wash", Amount: decimal.NewFromInt(10), CreatedAt: time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)},
		{ID: "e3", CarID: "car-2", Title: "oil", Amount: decimal.NewFromInt(60), When: ledger.NewDate(2024, 3, 4)},
	}))

	march := periodPointer(ledger.MonthPeriod(ledger.NewDate(2024, 3, 1)))
	list, err := service.ListCarExpenses(ctx, "car-1", march)
	require.NoError(test, err)
	require.Equal(test, 1, list.Count)
	require.Equal(test, "e2", list.Items[0].ID)

	all, err := service.ListCarExpenses(ctx, "", march)
	require.NoError(test, err)
	require.Equal(test, 2, all.Count)
	require.True(test, all.Total.Equal(decimal.NewFromInt(70)))

	created, err := service.CreateAdminExpense(ctx, ExpenseInput{Title: "rent", Amount: decimal.NewFromInt(500), When: "2024-03-01"})
	require.NoError(test, err)
	admin, err := service.ListAdminExpenses(ctx, march)
	require.NoError(test, err)
	require.Len(test, admin.Items, 1)
	require.True(test, admin.Total.Equal(decimal.NewFromInt(500)))

	require.NoError(test, service.DeleteAdminExpense(ctx, created.ID))
	require.ErrorIs(test, service.DeleteAdminExpense(ctx, created.ID), ledger.ErrNotFound)
	_, err = service.CreateCarExpense(ctx, ExpenseInput{Title: "brakes", Amount: decimal.NewFromInt(5)})
	require.ErrorIs(test, err, ledger.ErrValidation)
}

func TestIncomesAndIncidents(test *testing.T) {
	test.Parallel()
	service, _ := mustService(test)
	ctx := context.Background()

	income, err := service.CreateIncome(ctx, IncomeInput{Source: "insurance", Amount: decimal.NewFromInt(300)})
	require.NoError(test, err)
	require.Equal(test, ledger.NewDate(2024, 3, 15), income.Date, "missing date defaults to today")

	list, err := service.ListIncomes(ctx, periodPointer(ledger.DayPeriod(ledger.NewDate(2024, 3, 15))))
	require.NoError(test, err)
	require.Len(test, list.Items, 1)
	require.True(test, list.Total.Equal(decimal.NewFromInt(300)))

	_, err = service.CreateIncident(ctx, IncidentInput{Date: "2024-03-01", Description: "broken window"})
	require.NoError(test, err)
	_, err = service.CreateIncident(ctx, IncidentInput{Date: "2024-03-10", Description: "power cut"})
	require.NoError(test, err)
	incidents, err := service.ListIncidents(ctx)
	require.NoError(test, err)
	require.Len(test, incidents, 2)
	require.Equal(test, "power cut", incidents[0].Description)

	_, err = service.CreateIncident(ctx, IncidentInput{Description: "no date"})
	require.ErrorIs(test, err, ledger.ErrValidation)
	require.NoError(test, service.DeleteIncome(ctx, income.ID))
	require.True(test, errors.Is(service.DeleteIncident(ctx, "missing"), ledger.ErrNotFound))
}

func TestReservationEventsNameCarAndCustomer(test *testing.T) {
	test.Parallel()
	notifier := &recordingNotifier{}
	service, repository := mustService(test, WithNotifier(notifier))
	ctx := context.Background()
	require.NoError(test, repository.SaveCars(ctx, []ledger.Car{{ID: "car-1", Brand: "Kia", Model: "Rio", Plate: "77", BasePricePerDay: decimal.NewFromInt(60)}}))
	require.NoError(test, repository.SaveCustomers(ctx, []ledger.Customer{{ID: "c1", FirstName: "Aysel", LastName: "Mammadova"}}))

	reservations, err := ledger.NewService(repository, ledger.MustCalendar(ledger.DefaultTimezone), fixedClock,
		ledger.WithNotifier(service),
		ledger.WithIDGenerator(func() string { return "res-1" }),
	)
	require.NoError(test, err)

	created, err := reservations.CreateReservation(ctx, ledger.CreateReservationInput{
		CarID:      "car-1",
		CustomerID: "c1",
		StartAt:    "2024-03-10T10:00",
		EndAt:      "2024-03-13T10:00",
	})
	require.NoError(test, err)
	price := decimal.NewFromInt(80)
	_, err = reservations.Extend(ctx, created.ID, ledger.ExtendInput{DaysToAdd: 2, PricePerDay: &price})
	require.NoError(test, err)

	require.Len(test, notifier.events, 2)
	booked := notifier.events[0]
	require.Equal(test, notify.KindReservation, booked.Kind)
	require.Equal(test, "res-1", booked.Subject)
	require.True(test, booked.Amount.Equal(decimal.NewFromInt(180)), "got %s", booked.Amount)
	require.Equal(test, "Kia Rio (77)", booked.Attributes["car"])
	require.Equal(test, "Aysel Mammadova", booked.Attributes["customer"])
	require.Equal(test, "2024-03-10", booked.Attributes["from"])
	require.Equal(test, "3", booked.Attributes["days"])

	extended := notifier.events[1]
	require.Equal(test, notify.KindExtension, extended.Kind)
	require.True(test, extended.Amount.Equal(decimal.NewFromInt(340)), "got %s", extended.Amount)
	require.Equal(test, "2", extended.Attributes["daysAdded"])
	require.Equal(test, "5", extended.Attributes["days"])
	require.Equal(test, "2024-03-14", extended.Attributes["until"])
}
