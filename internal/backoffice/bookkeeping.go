package backoffice

import (
	"context"
	"sort"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// FineFilter narrows a fine listing.
type FineFilter struct {
	CustomerID string
	Period     *ledger.Period
}

// FineList is a filtered fine listing; Total sums what the paid fines brought in.
type FineList struct {
	Items []ledger.Fine   `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// FineInput describes a new fine.
type FineInput struct {
	CarID      string
	CustomerID string
	Amount     decimal.Decimal
	Points     int
	Date       string
	Reason     string
	IsPaid     bool
}

// FinePatch records a payment against a fine.
type FinePatch struct {
	AmountPaid *decimal.Decimal
	IsPaid     *bool
}

// IncomeList is a filtered income listing with its sum.
type IncomeList struct {
	Items []ledger.Income `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// IncomeInput describes money received outside of reservations.
type IncomeInput struct {
	Source      string
	Description string
	Amount      decimal.Decimal
	Date        string
}

// ExpenseList is a filtered expense listing with its sum and size.
type ExpenseList struct {
	Items []ledger.Expense `json:"items"`
	Total decimal.Decimal  `json:"total"`
	Count int              `json:"count"`
}

// ExpenseInput describes an administrative or car expense.
type ExpenseInput struct {
	CarID    string
	Title    string
	Category string
	Amount   decimal.Decimal
	When     string
	Notes    string
}

// IncidentInput describes an office incident.
type IncidentInput struct {
	Date        string
	Description string
}

// ListFines returns fines newest first.
func (service *Service) ListFines(ctx context.Context, filter FineFilter) (FineList, error) {
	fines, err := service.store.ListFines(ctx)
	if err != nil {
		return FineList{}, err
	}
	items := make([]ledger.Fine, 0, len(fines))
	total := decimal.Zero
	for _, fine := range fines {
		if filter.CustomerID != "" && fine.CustomerID != filter.CustomerID {
			continue
		}
		if !inPeriod(filter.Period, fine.Date) {
			continue
		}
		items = append(items, fine)
		total = total.Add(fine.RecognizedAmount())
	}
	sort.SliceStable(items, func(left int, right int) bool {
		return items[left].Date.After(items[right].Date)
	})
	return FineList{Items: items, Total: total}, nil
}

// CreateFine records a fine; a fine created as paid is paid in full.
func (service *Service) CreateFine(ctx context.Context, input FineInput) (ledger.Fine, error) {
	if strings.TrimSpace(input.CustomerID) == "" || input.Amount.Sign() <= 0 || strings.TrimSpace(input.Date) == "" {
		return ledger.Fine{}, invalid(subjectFine, "customerId, amount and date are required")
	}
	date, err := ledger.ParseDate(input.Date)
	if err != nil {
		return ledger.Fine{}, invalid(subjectFine, err.Error())
	}
	fines, err := service.store.ListFines(ctx)
	if err != nil {
		return ledger.Fine{}, err
	}
	fine := ledger.Fine{
		ID:         service.newID(),
		CarID:      input.CarID,
		CustomerID: input.CustomerID,
		Amount:     input.Amount,
		AmountPaid: decimal.Zero,
		IsPaid:     input.IsPaid,
		Points:     input.Points,
		Date:       date,
		Reason:     input.Reason,
		CreatedAt:  service.nowFn(),
	}
	if fine.IsPaid {
		fine.AmountPaid = fine.Amount
	}
	if err := service.store.SaveFines(ctx, append(fines, fine)); err != nil {
		return ledger.Fine{}, err
	}
	service.notify(ctx, notify.Event{
		Kind:       notify.KindFine,
		Subject:    fine.Reason,
		Amount:     fine.Amount,
		Attributes: service.describeParties(ctx, fine.CarID, fine.CustomerID),
	})
	return fine, nil
}

func (service *Service) UpdateFine(ctx context.Context, fineID string, patch FinePatch) (ledger.Fine, error) {
	if patch.AmountPaid != nil && patch.AmountPaid.Sign() < 0 {
		return ledger.Fine{}, invalid(subjectFine, "amountPaid must not be negative")
	}
	fines, err := service.store.ListFines(ctx)
	if err != nil {
		return ledger.Fine{}, err
	}
	for index := range fines {
		if fines[index].ID != fineID {
			continue
		}
		fines[index].ApplyPayment(patch.AmountPaid, patch.IsPaid)
		if err := service.store.SaveFines(ctx, fines); err != nil {
			return ledger.Fine{}, err
		}
		return fines[index], nil
	}
	return ledger.Fine{}, notFound(subjectFine, fineID)
}

func (service *Service) DeleteFine(ctx context.Context, fineID string) error {
	fines, err := service.store.ListFines(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(fines, fineID, func(fine ledger.Fine) string { return fine.ID })
	if !removed {
		return notFound(subjectFine, fineID)
	}
	return service.store.SaveFines(ctx, remaining)
}

// ListIncomes returns incomes dated within period (all when nil) in stored order.
func (service *Service) ListIncomes(ctx context.Context, period *ledger.Period) (IncomeList, error) {
	incomes, err := service.store.ListIncomes(ctx)
	if err != nil {
		return IncomeList{}, err
	}
	items := make([]ledger.Income, 0, len(incomes))
	total := decimal.Zero
	for _, income := range incomes {
		if !inPeriod(period, income.Date) {
			continue
		}
		items = append(items, income)
		total = total.Add(income.Amount)
	}
	return IncomeList{Items: items, Total: total}, nil
}

// CreateIncome records an income; a missing date means today.
func (service *Service) CreateIncome(ctx context.Context, input IncomeInput) (ledger.Income, error) {
	if input.Amount.Sign() < 0 {
		return ledger.Income{}, invalid(subjectIncome, "amount must not be negative")
	}
	date := service.today()
	if strings.TrimSpace(input.Date) != "" {
		parsed, err := ledger.ParseDate(input.Date)
		if err != nil {
			return ledger.Income{}, invalid(subjectIncome, err.Error())
		}
		date = parsed
	}
	incomes, err := service.store.ListIncomes(ctx)
	if err != nil {
		return ledger.Income{}, err
	}
	income := ledger.Income{
		ID:          service.newID(),
		Source:      input.Source,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        date,
		CreatedAt:   service.nowFn(),
	}
	if err := service.store.SaveIncomes(ctx, append(incomes, income)); err != nil {
		return ledger.Income{}, err
	}
	service.notify(ctx, notify.Event{
		Kind:       notify.KindIncome,
		Subject:    income.Source,
		Amount:     income.Amount,
		Attributes: map[string]string{"description": income.Description},
	})
	return income, nil
}

func (service *Service) DeleteIncome(ctx context.Context, incomeID string) error {
	incomes, err := service.store.ListIncomes(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(incomes, incomeID, func(income ledger.Income) string { return income.ID })
	if !removed {
		return notFound(subjectIncome, incomeID)
	}
	return service.store.SaveIncomes(ctx, remaining)
}

// ListAdminExpenses returns administrative expenses effective within period.
func (service *Service) ListAdminExpenses(ctx context.Context, period *ledger.Period) (ExpenseList, error) {
	expenses, err := service.store.ListAdminExpenses(ctx)
	if err != nil {
		return ExpenseList{}, err
	}
	return filterExpenses(expenses, "", period), nil
}

// ListCarExpenses returns car expenses effective within period, optionally for one car.
func (service *Service) ListCarExpenses(ctx context.Context, carID string, period *ledger.Period) (ExpenseList, error) {
	expenses, err := service.store.ListCarExpenses(ctx)
	if err != nil {
		return ExpenseList{}, err
	}
	return filterExpenses(expenses, carID, period), nil
}

func (service *Service) CreateAdminExpense(ctx context.Context, input ExpenseInput) (ledger.Expense, error) {
	expense, err := service.newExpense(subjectAdminExpense, input)
	if err != nil {
		return ledger.Expense{}, err
	}
	expense.CarID = ""
	expenses, err := service.store.ListAdminExpenses(ctx)
	if err != nil {
		return ledger.Expense{}, err
	}
	if err := service.store.SaveAdminExpenses(ctx, append(expenses, expense)); err != nil {
		return ledger.Expense{}, err
	}
	service.notify(ctx, notify.Event{
		Kind:       notify.KindAdminExpense,
		Subject:    expense.Title,
		Amount:     expense.Amount,
		Attributes: map[string]string{"when": expense.EffectiveDate().String()},
	})
	return expense, nil
}

func (service *Service) CreateCarExpense(ctx context.Context, input ExpenseInput) (ledger.Expense, error) {
	if strings.TrimSpace(input.CarID) == "" {
		return ledger.Expense{}, invalid(subjectCarExpense, "carId is required")
	}
	expense, err := service.newExpense(subjectCarExpense, input)
	if err != nil {
		return ledger.Expense{}, err
	}
	expenses, err := service.store.ListCarExpenses(ctx)
	if err != nil {
		return ledger.Expense{}, err
	}
	if err := service.store.SaveCarExpenses(ctx, append(expenses, expense)); err != nil {
		return ledger.Expense{}, err
	}
	service.notify(ctx, notify.Event{
		Kind:       notify.KindCarExpense,
		Subject:    expense.Title,
		Amount:     expense.Amount,
		Attributes: service.describeParties(ctx, expense.CarID, ""),
	})
	return expense, nil
}

// DeleteAdminExpense removes an administrative expense; an unknown id is ErrNotFound.
func (service *Service) DeleteAdminExpense(ctx context.Context, expenseID string) error {
	expenses, err := service.store.ListAdminExpenses(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(expenses, expenseID, expenseIDOf)
	if !removed {
		return notFound(subjectAdminExpense, expenseID)
	}
	return service.store.SaveAdminExpenses(ctx, remaining)
}

func (service *Service) DeleteCarExpense(ctx context.Context, expenseID string) error {
	expenses, err := service.store.ListCarExpenses(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(expenses, expenseID, expenseIDOf)
	if !removed {
		return notFound(subjectCarExpense, expenseID)
	}
	return service.store.SaveCarExpenses(ctx, remaining)
}

// ListIncidents returns office incidents newest first.
func (service *Service) ListIncidents(ctx context.Context) ([]ledger.Incident, error) {
	incidents, err := service.store.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(incidents, func(left int, right int) bool {
		return incidents[left].Date.After(incidents[right].Date)
	})
	return incidents, nil
}

func (service *Service) CreateIncident(ctx context.Context, input IncidentInput) (ledger.Incident, error) {
	if strings.TrimSpace(input.Date) == "" || strings.TrimSpace(input.Description) == "" {
		return ledger.Incident{}, invalid(subjectIncident, "date and description are required")
	}
	date, err := ledger.ParseDate(input.Date)
	if err != nil {
		return ledger.Incident{}, invalid(subjectIncident, err.Error())
	}
	incidents, err := service.store.ListIncidents(ctx)
	if err != nil {
		return ledger.Incident{}, err
	}
	incident := ledger.Incident{
		ID:          service.newID(),
		Date:        date,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   service.nowFn(),
	}
	if err := service.store.SaveIncidents(ctx, append(incidents, incident)); err != nil {
		return ledger.Incident{}, err
	}
	service.notify(ctx, notify.Event{
		Kind:       notify.KindIncident,
		Subject:    incident.Description,
		Attributes: map[string]string{"date": incident.Date.String()},
	})
	return incident, nil
}

func (service *Service) DeleteIncident(ctx context.Context, incidentID string) error {
	incidents, err := service.store.ListIncidents(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(incidents, incidentID, func(incident ledger.Incident) string { return incident.ID })
	if !removed {
		return notFound(subjectIncident, incidentID)
	}
	return service.store.SaveIncidents(ctx, remaining)
}

func (service *Service) newExpense(subject string, input ExpenseInput) (ledger.Expense, error) {
	if strings.TrimSpace(input.Title) == "" {
		return ledger.Expense{}, invalid(subject, "title is required")
	}
	if input.Amount.Sign() < 0 {
		return ledger.Expense{}, invalid(subject, "amount must not be negative")
	}
	var when ledger.Date
	if strings.TrimSpace(input.When) != "" {
		parsed, err := ledger.ParseDate(input.When)
		if err != nil {
			return ledger.Expense{}, invalid(subject, err.Error())
		}
		when = parsed
	}
	now := service.nowFn()
	return ledger.Expense{
		ID:        service.newID(),
		CarID:     strings.TrimSpace(input.CarID),
		Title:     strings.TrimSpace(input.Title),
		Category:  input.Category,
		Amount:    input.Amount,
		When:      when,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// describeParties names the car and customer for a notification; lookup
// failures only leave the attributes out.
func (service *Service) describeParties(ctx context.Context, carID string, customerID string) map[string]string {
	attributes := map[string]string{}
	if carID != "" {
		if cars, err := service.store.ListCars(ctx); err == nil {
			for _, car := range cars {
				if car.ID == carID {
					attributes["car"] = car.DisplayName()
				}
			}
		}
	}
	if customerID != "" {
		if customers, err := service.store.ListCustomers(ctx); err == nil {
			for _, customer := range customers {
				if customer.ID == customerID {
					attributes["customer"] = customer.FullName()
				}
			}
		}
	}
	return attributes
}

func filterExpenses(expenses []ledger.Expense, carID string, period *ledger.Period) ExpenseList {
	items := make([]ledger.Expense, 0, len(expenses))
	total := decimal.Zero
	for _, expense := range expenses {
		if carID != "" && expense.CarID != carID {
			continue
		}
		if !inPeriod(period, expense.EffectiveDate()) {
			continue
		}
		items = append(items, expense)
		total = total.Add(expense.Amount)
	}
	return ExpenseList{Items: items, Total: total, Count: len(items)}
}

func expenseIDOf(expense ledger.Expense) string {
	return expense.ID
}
