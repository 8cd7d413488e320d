package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// Repository decodes backend collections into typed fleet records.
type Repository struct {
	backend  Backend
	calendar ledger.Calendar
}

// NewRepository wires a Repository over backend.
func NewRepository(backend Backend, calendar ledger.Calendar) (*Repository, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	return &Repository{backend: backend, calendar: calendar}, nil
}

// WithTx runs fn against a repository bound to one backend transaction.
func (repository *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return repository.backend.WithTx(ctx, func(ctx context.Context, backend Backend) error {
		return fn(ctx, &Repository{backend: backend, calendar: repository.calendar})
	})
}

// ListReservations decodes every reservation, upgrading legacy records in memory.
func (repository *Repository) ListReservations(ctx context.Context) ([]ledger.Reservation, error) {
	records, err := repository.backend.ReadCollection(ctx, CollectionReservations)
	if err != nil {
		return nil, wrapStoreError(CollectionReservations, errorCodeRead, err)
	}
	reservations := make([]ledger.Reservation, 0, len(records))
	for _, record := range records {
		reservation, _, err := repository.calendar.DecodeReservation(record)
		if err != nil {
			return nil, wrapStoreError(CollectionReservations, errorCodeDecode, err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

// SaveReservations replaces the reservation collection.
func (repository *Repository) SaveReservations(ctx context.Context, reservations []ledger.Reservation) error {
	return writeAll(ctx, repository.backend, CollectionReservations, reservations)
}

// UpgradeLegacyReservations rewrites legacy reservation records in the day-ledger
// format and returns how many were upgraded. Nothing is written when none were.
func (repository *Repository) UpgradeLegacyReservations(ctx context.Context) (int, error) {
	upgradedCount := 0
	err := repository.backend.WithTx(ctx, func(ctx context.Context, backend Backend) error {
		records, err := backend.ReadCollection(ctx, CollectionReservations)
		if err != nil {
			return wrapStoreError(CollectionReservations, errorCodeRead, err)
		}
		reservations := make([]ledger.Reservation, 0, len(records))
		for _, record := range records {
			reservation, upgraded, err := repository.calendar.DecodeReservation(record)
			if err != nil {
				return wrapStoreError(CollectionReservations, errorCodeDecode, err)
			}
			if upgraded {
				upgradedCount++
			}
			reservations = append(reservations, reservation)
		}
		if upgradedCount == 0 {
			return nil
		}
		return writeAll(ctx, backend, CollectionReservations, reservations)
	})
	if err != nil {
		return 0, err
	}
	return upgradedCount, nil
}

func (repository *Repository) ListCars(ctx context.Context) ([]ledger.Car, error) {
	return readAll[ledger.Car](ctx, repository.backend, CollectionCars)
}

func (repository *Repository) SaveCars(ctx context.Context, cars []ledger.Car) error {
	return writeAll(ctx, repository.backend, CollectionCars, cars)
}

func (repository *Repository) ListCustomers(ctx context.Context) ([]ledger.Customer, error) {
	return readAll[ledger.Customer](ctx, repository.backend, CollectionCustomers)
}

func (repository *Repository) SaveCustomers(ctx context.Context, customers []ledger.Customer) error {
	return writeAll(ctx, repository.backend, CollectionCustomers, customers)
}

func (repository *Repository) ListFines(ctx context.Context) ([]ledger.Fine, error) {
	return readAll[ledger.Fine](ctx, repository.backend, CollectionFines)
}

func (repository *Repository) SaveFines(ctx context.Context, fines []ledger.Fine) error {
	return writeAll(ctx, repository.backend, CollectionFines, fines)
}

func (repository *Repository) ListIncomes(ctx context.Context) ([]ledger.Income, error) {
	return readAll[ledger.Income](ctx, repository.backend, CollectionIncomes)
}

func (repository *Repository) SaveIncomes(ctx context.Context, incomes []ledger.Income) error {
	return writeAll(ctx, repository.backend, CollectionIncomes, incomes)
}

func (repository *Repository) ListAdminExpenses(ctx context.Context) ([]ledger.Expense, error) {
	return readAll[ledger.Expense](ctx, repository.backend, CollectionAdminExpenses)
}

func (repository *Repository) SaveAdminExpenses(ctx context.Context, expenses []ledger.Expense) error {
	return writeAll(ctx, repository.backend, CollectionAdminExpenses, expenses)
}

func (repository *Repository) ListCarExpenses(ctx context.Context) ([]ledger.Expense, error) {
	return readAll[ledger.Expense](ctx, repository.backend, CollectionCarExpenses)
}

func (repository *Repository) SaveCarExpenses(ctx context.Context, expenses []ledger.Expense) error {
	return writeAll(ctx, repository.backend, CollectionCarExpenses, expenses)
}

func (repository *Repository) ListIncidents(ctx context.Context) ([]ledger.Incident, error) {
	return readAll[ledger.Incident](ctx, repository.backend, CollectionOfficeIncidents)
}

func (repository *Repository) SaveIncidents(ctx context.Context, incidents []ledger.Incident) error {
	return writeAll(ctx, repository.backend, CollectionOfficeIncidents, incidents)
}

func (repository *Repository) ListUsers(ctx context.Context) ([]ledger.User, error) {
	return readAll[ledger.User](ctx, repository.backend, CollectionUsers)
}

func (repository *Repository) SaveUsers(ctx context.Context, users []ledger.User) error {
	return writeAll(ctx, repository.backend, CollectionUsers, users)
}

func readAll[T any](ctx context.Context, backend Backend, name string) ([]T, error) {
	records, err := backend.ReadCollection(ctx, name)
	if err != nil {
		return nil, wrapStoreError(name, errorCodeRead, err)
	}
	items := make([]T, 0, len(records))
	for index, record := range records {
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, wrapStoreError(name, errorCodeDecode, fmt.Errorf("%w: record %d: %v", ledger.ErrStorageCorrupted, index, err))
		}
		items = append(items, item)
	}
	return items, nil
}

func writeAll[T any](ctx context.Context, backend Backend, name string, items []T) error {
	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return wrapStoreError(name, errorCodeEncode, err)
		}
		records = append(records, encoded)
	}
	if err := backend.WriteCollection(ctx, name, records); err != nil {
		return wrapStoreError(name, errorCodeWrite, err)
	}
	return nil
}
