// Package report folds the fleet records into read-only KPIs and listings.
// Every aggregation is a pure function of a Dataset; Service loads a fresh
// Dataset for each call.
package report

import (
	"context"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// Source lists the collections the reports read.
type Source interface {
	ListReservations(ctx context.Context) ([]ledger.Reservation, error)
	ListCars(ctx context.Context) ([]ledger.Car, error)
	ListCustomers(ctx context.Context) ([]ledger.Customer, error)
	ListFines(ctx context.Context) ([]ledger.Fine, error)
	ListIncomes(ctx context.Context) ([]ledger.Income, error)
	ListAdminExpenses(ctx context.Context) ([]ledger.Expense, error)
	ListCarExpenses(ctx context.Context) ([]ledger.Expense, error)
	ListIncidents(ctx context.Context) ([]ledger.Incident, error)
}

// Dataset is a snapshot of every collection a report may read.
type Dataset struct {
	Reservations  []ledger.Reservation
	Cars          []ledger.Car
	Customers     []ledger.Customer
	Fines         []ledger.Fine
	Incomes       []ledger.Income
	AdminExpenses []ledger.Expense
	CarExpenses   []ledger.Expense
	Incidents     []ledger.Incident
}

// Load reads a Dataset from source.
func Load(ctx context.Context, source Source) (Dataset, error) {
	var dataset Dataset
	var err error
	if dataset.Reservations, err = source.ListReservations(ctx); err != nil {
		return Dataset{}, loadError(subjectReservations, err)
	}
	if dataset.Cars, err = source.ListCars(ctx); err != nil {
		return Dataset{}, loadError(subjectCars, err)
	}
	if dataset.Customers, err = source.ListCustomers(ctx); err != nil {
		return Dataset{}, loadError(subjectCustomers, err)
	}
	if dataset.Fines, err = source.ListFines(ctx); err != nil {
		return Dataset{}, loadError(subjectFines, err)
	}
	if dataset.Incomes, err = source.ListIncomes(ctx); err != nil {
		return Dataset{}, loadError(subjectIncomes, err)
	}
	if dataset.AdminExpenses, err = source.ListAdminExpenses(ctx); err != nil {
		return Dataset{}, loadError(subjectAdminExpenses, err)
	}
	if dataset.CarExpenses, err = source.ListCarExpenses(ctx); err != nil {
		return Dataset{}, loadError(subjectCarExpenses, err)
	}
	if dataset.Incidents, err = source.ListIncidents(ctx); err != nil {
		return Dataset{}, loadError(subjectIncidents, err)
	}
	return dataset, nil
}

func (dataset Dataset) car(carID string) (ledger.Car, bool) {
	for _, car := range dataset.Cars {
		if car.ID == carID {
			return car, true
		}
	}
	return ledger.Car{}, false
}

func (dataset Dataset) customer(customerID string) (ledger.Customer, bool) {
	for _, customer := range dataset.Customers {
		if customer.ID == customerID {
			return customer, true
		}
	}
	return ledger.Customer{}, false
}

func loadError(subject string, err error) error {
	return ledger.WrapError(operationLoad, subject, errorCodeLoad, err)
}
