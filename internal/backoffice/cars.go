package backoffice

import (
	"context"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// CarInput describes a new car.
type CarInput struct {
	Brand           string
	Model           string
	Plate           string
	BasePricePerDay decimal.Decimal
}

// CarPatch updates a car. Status accepts only FREE or SERVICE; any other
// value leaves the current status in place.
type CarPatch struct {
	Brand           *string
	Model           *string
	Plate           *string
	BasePricePerDay *decimal.Decimal
	Status          *string
}

func (service *Service) ListCars(ctx context.Context) ([]ledger.Car, error) {
	return service.store.ListCars(ctx)
}

// CreateCar registers a car as FREE.
func (service *Service) CreateCar(ctx context.Context, input CarInput) (ledger.Car, error) {
	if strings.TrimSpace(input.Brand) == "" || strings.TrimSpace(input.Model) == "" {
		return ledger.Car{}, invalid(subjectCar, "brand and model are required")
	}
	if input.BasePricePerDay.Sign() < 0 {
		return ledger.Car{}, invalid(subjectCar, "basePricePerDay must not be negative")
	}
	cars, err := service.store.ListCars(ctx)
	if err != nil {
		return ledger.Car{}, err
	}
	now := service.nowFn()
	car := ledger.Car{
		ID:              service.newID(),
		Brand:           strings.TrimSpace(input.Brand),
		Model:           strings.TrimSpace(input.Model),
		Plate:           strings.TrimSpace(input.Plate),
		BasePricePerDay: input.BasePricePerDay,
		Status:          ledger.CarStatusFree,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := service.store.SaveCars(ctx, append(cars, car)); err != nil {
		return ledger.Car{}, err
	}
	return car, nil
}

func (service *Service) UpdateCar(ctx context.Context, carID string, patch CarPatch) (ledger.Car, error) {
	cars, err := service.store.ListCars(ctx)
	if err != nil {
		return ledger.Car{}, err
	}
	index := -1
	for candidate := range cars {
		if cars[candidate].ID == carID {
			index = candidate
			break
		}
	}
	if index < 0 {
		return ledger.Car{}, notFound(subjectCar, carID)
	}
	car := cars[index]
	if patch.Brand != nil {
		car.Brand = *patch.Brand
	}
	if patch.Model != nil {
		car.Model = *patch.Model
	}
	if patch.Plate != nil {
		car.Plate = *patch.Plate
	}
	if patch.BasePricePerDay != nil {
		if patch.BasePricePerDay.Sign() < 0 {
			return ledger.Car{}, invalid(subjectCar, "basePricePerDay must not be negative")
		}
		car.BasePricePerDay = *patch.BasePricePerDay
	}
	if patch.Status != nil {
		if status, err := ledger.ParseManualCarStatus(*patch.Status); err == nil {
			car.Status = status
		}
	}
	car.UpdatedAt = service.nowFn()
	cars[index] = car
	if err := service.store.SaveCars(ctx, cars); err != nil {
		return ledger.Car{}, err
	}
	return car, nil
}

func (service *Service) DeleteCar(ctx context.Context, carID string) error {
	cars, err := service.store.ListCars(ctx)
	if err != nil {
		return err
	}
	remaining, removed := removeByID(cars, carID, func(car ledger.Car) string { return car.ID })
	if !removed {
		return notFound(subjectCar, carID)
	}
	return service.store.SaveCars(ctx, remaining)
}
