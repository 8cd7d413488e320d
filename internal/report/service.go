package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

const (
	operationLoad     = "load"
	operationValidate = "validate"
	errorCodeLoad     = "load"
	errorCodeInvalid  = "invalid"

	subjectReservations  = "reservations"
	subjectCars          = "cars"
	subjectCustomers     = "customers"
	subjectFines         = "fines"
	subjectIncomes       = "incomes"
	subjectAdminExpenses = "admin_expenses"
	subjectCarExpenses   = "car_expenses"
	subjectIncidents     = "incidents"
	subjectReport        = "report"
	subjectExport        = "export"
)

// Service answers report queries against a Source.
type Service struct {
	source   Source
	calendar ledger.Calendar
	nowFn    func() time.Time
}

// NewService wires a report Service.
func NewService(source Source, calendar ledger.Calendar, now func() time.Time) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	return &Service{source: source, calendar: calendar, nowFn: now}, nil
}

// Today returns the current date in the ledger calendar.
func (service *Service) Today() ledger.Date {
	return service.calendar.Today(service.nowFn())
}

// Financials reports period, defaulting to the current month.
func (service *Service) Financials(ctx context.Context, period *ledger.Period) (FinancialReport, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return FinancialReport{}, err
	}
	return Financials(dataset, service.periodOrMonth(period)), nil
}

// DailySummary reports day, defaulting to yesterday.
func (service *Service) DailySummary(ctx context.Context, day *ledger.Date) (DailySummary, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return DailySummary{}, err
	}
	target := service.Today().AddDays(-1)
	if day != nil && !day.IsZero() {
		target = *day
	}
	return BuildDailySummary(dataset, service.calendar, target), nil
}

// SingleCarMonthly reports one car for a "YYYY-MM" month. Both arguments are required.
func (service *Service) SingleCarMonthly(ctx context.Context, carID string, month string) (CarMonthReport, error) {
	if strings.TrimSpace(carID) == "" || strings.TrimSpace(month) == "" {
		return CarMonthReport{}, invalid(subjectReport, "carId and month are required")
	}
	period, err := ledger.ParseMonth(month)
	if err != nil {
		return CarMonthReport{}, invalid(subjectReport, err.Error())
	}
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return CarMonthReport{}, err
	}
	return SingleCarMonthly(dataset, carID, period), nil
}

// CarPopularity reports reservation counts per car.
func (service *Service) CarPopularity(ctx context.Context) (Popularity, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return Popularity{}, err
	}
	return CarPopularity(dataset), nil
}

// CarProfitability reports revenue against expenses per car.
func (service *Service) CarProfitability(ctx context.Context) ([]CarProfit, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return nil, err
	}
	return CarProfitability(dataset), nil
}

// BestCustomers ranks customers by completed revenue.
func (service *Service) BestCustomers(ctx context.Context) ([]CustomerRevenue, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return nil, err
	}
	return BestCustomers(dataset), nil
}

// Occupancy reports a "YYYY-MM" month, defaulting to the current one.
func (service *Service) Occupancy(ctx context.Context, month string) (OccupancyReport, error) {
	period := ledger.MonthPeriod(service.Today())
	if strings.TrimSpace(month) != "" {
		parsed, err := ledger.ParseMonth(month)
		if err != nil {
			return OccupancyReport{}, invalid(subjectReport, err.Error())
		}
		period = parsed
	}
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return OccupancyReport{}, err
	}
	return Occupancy(dataset, period), nil
}

// AverageDuration reports the mean completed rental length.
func (service *Service) AverageDuration(ctx context.Context) (Duration, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return Duration{}, err
	}
	return AverageDuration(dataset), nil
}

// RevenueByBrand reports completed revenue per brand.
func (service *Service) RevenueByBrand(ctx context.Context) ([]BrandRevenue, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return nil, err
	}
	return RevenueByBrand(dataset), nil
}

// Revenue lists reservations touching period, defaulting to the current month.
func (service *Service) Revenue(ctx context.Context, period *ledger.Period) (RevenueReport, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return RevenueReport{}, err
	}
	return Revenue(dataset, service.periodOrMonth(period)), nil
}

// Dashboard summarizes today.
func (service *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return DashboardStats{}, err
	}
	return Dashboard(dataset, service.Today()), nil
}

// CalendarEvents lists every reservation as a calendar event.
func (service *Service) CalendarEvents(ctx context.Context) ([]CalendarEvent, error) {
	dataset, err := Load(ctx, service.source)
	if err != nil {
		return nil, err
	}
	return CalendarEvents(dataset), nil
}

// ExportSingleCarMonthly renders the single-car monthly report as a document.
func (service *Service) ExportSingleCarMonthly(ctx context.Context, carID string, month string, format string) (Document, error) {
	exportFormat, err := ParseFormat(format)
	if err != nil {
		return Document{}, err
	}
	report, err := service.SingleCarMonthly(ctx, carID, month)
	if err != nil {
		return Document{}, err
	}
	return RenderCarMonth(report, exportFormat)
}

func (service *Service) periodOrMonth(period *ledger.Period) ledger.Period {
	if period != nil {
		return *period
	}
	return ledger.MonthPeriod(service.Today())
}

func invalid(subject string, message string) error {
	return ledger.WrapError(operationValidate, subject, errorCodeInvalid, fmt.Errorf("%w: %s", ledger.ErrValidation, message))
}
