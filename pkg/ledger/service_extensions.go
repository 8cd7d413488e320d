package ledger

import "context"

// RefreshCarStatuses recomputes every car's status from the stored reservations
// and returns how many cars changed.
func (service *Service) RefreshCarStatuses(ctx context.Context) (int, error) {
	changed := 0
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservations, err := transactionStore.ListReservations(ctx)
		if err != nil {
			return err
		}
		cars, err := transactionStore.ListCars(ctx)
		if err != nil {
			return err
		}
		now := service.nowFn()
		for index := range cars {
			status := ComputeCarStatus(cars[index], reservations)
			if cars[index].Status != status {
				cars[index].Status = status
				cars[index].UpdatedAt = now
				changed++
			}
		}
		if changed == 0 {
			return nil
		}
		if err := transactionStore.SaveCars(ctx, cars); err != nil {
			return WrapError(operationCarStatus, subjectCar, errorCodeSave, err)
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationCarStatus,
		Error:     operationError,
	})
	if operationError != nil {
		return 0, operationError
	}
	return changed, nil
}
