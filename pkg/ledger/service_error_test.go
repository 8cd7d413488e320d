package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const (
	errStoreMessage      = "store error"
	errorMismatchMessage = "expected %v, got %v"
)

var errStoreFailure = errors.New(errStoreMessage)

type failingStore struct {
	err error
}

func newFailingStore(test *testing.T, err error) *failingStore {
	test.Helper()
	return &failingStore{err: err}
}

func (store *failingStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *failingStore) ListReservations(context.Context) ([]Reservation, error) {
	return nil, store.err
}

func (store *failingStore) SaveReservations(context.Context, []Reservation) error {
	return store.err
}

func (store *failingStore) ListCars(context.Context) ([]Car, error) {
	return nil, store.err
}

func (store *failingStore) SaveCars(context.Context, []Car) error {
	return store.err
}

func TestCreateReservationReturnsStoreErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		configure func(store *stubStore)
		wantSaved int
	}{
		{
			name:      "list reservations error",
			configure: func(store *stubStore) { store.listReservationsError = errStoreFailure },
		},
		{
			name:      "list cars error",
			configure: func(store *stubStore) { store.listCarsError = errStoreFailure },
		},
		{
			name:      "save reservations error",
			configure: func(store *stubStore) { store.saveReservationsError = errStoreFailure },
		},
		{
			name:      "save cars error",
			configure: func(store *stubStore) { store.saveCarsError = errStoreFailure },
			wantSaved: 1,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			store.cars = []Car{{ID: carIDValue, BasePricePerDay: decimal.NewFromInt(10), Status: CarStatusFree}}
			testCase.configure(store)
			service := mustNewService(test, store)
			_, err := service.CreateReservation(context.Background(), CreateReservationInput{
				CarID:      carIDValue,
				CustomerID: customerIDValue,
				StartAt:    "2024-01-01",
				EndAt:      "2024-01-02",
			})
			if !errors.Is(err, errStoreFailure) {
				test.Fatalf(errorMismatchMessage, errStoreFailure, err)
			}
			if len(store.reservations) != testCase.wantSaved {
				test.Fatalf("expected %d stored reservations, got %d", testCase.wantSaved, len(store.reservations))
			}
		})
	}
}

func TestSaveCarsFailureIsWrapped(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.cars = []Car{{ID: carIDValue, Status: CarStatusFree}}
	store.saveCarsError = errStoreFailure
	service := mustNewService(test, store)

	_, err := service.CreateReservation(context.Background(), CreateReservationInput{
		CarID:      carIDValue,
		CustomerID: customerIDValue,
		StartAt:    "2024-01-01",
		EndAt:      "2024-01-02",
	})
	var operationError OperationError
	if !errors.As(err, &operationError) {
		test.Fatalf("expected OperationError, got %T", err)
	}
	if operationError.Operation() != operationCarStatus || operationError.Code() != errorCodeSave {
		test.Fatalf("unexpected error metadata: %v", err)
	}
}

func TestMutationsReturnStoreErrors(test *testing.T) {
	test.Parallel()
	paid := decimal.NewFromInt(10)
	price := decimal.NewFromInt(10)
	completed := ReservationStatusCompleted
	testCases := []struct {
		name string
		run  func(service *Service) error
	}{
		{
			name: "list reservations",
			run: func(service *Service) error {
				_, err := service.ListReservations(context.Background(), "")
				return err
			},
		},
		{
			name: "get reservation",
			run: func(service *Service) error {
				_, err := service.GetReservation(context.Background(), "res-1")
				return err
			},
		},
		{
			name: "check availability",
			run: func(service *Service) error {
				_, err := service.CheckAvailability(context.Background(), AvailabilityQuery{CarID: carIDValue, StartAt: "2024-01-01", EndAt: "2024-01-02"})
				return err
			},
		},
		{
			name: "update days",
			run: func(service *Service) error {
				_, err := service.UpdateDays(context.Background(), "res-1", []DayEdit{{Date: "2024-01-01", Paid: &paid}})
				return err
			},
		},
		{
			name: "update reservation",
			run: func(service *Service) error {
				_, err := service.UpdateReservation(context.Background(), "res-1", ReservationPatch{Status: &completed})
				return err
			},
		},
		{
			name: "extend",
			run: func(service *Service) error {
				_, err := service.Extend(context.Background(), "res-1", ExtendInput{DaysToAdd: 1, PricePerDay: &price})
				return err
			},
		},
		{
			name: "delete",
			run: func(service *Service) error {
				return service.DeleteReservation(context.Background(), "res-1")
			},
		},
		{
			name: "refresh car statuses",
			run: func(service *Service) error {
				_, err := service.RefreshCarStatuses(context.Background())
				return err
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			service := mustNewService(test, newFailingStore(test, errStoreFailure))
			if err := testCase.run(service); !errors.Is(err, errStoreFailure) {
				test.Fatalf(errorMismatchMessage, errStoreFailure, err)
			}
		})
	}
}
