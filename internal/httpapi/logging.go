package httpapi

import (
	"context"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"go.uber.org/zap"
)

// OperationLogger reports reservation ledger operations to zap and Prometheus.
type OperationLogger struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewOperationLogger returns a ledger.OperationLogger; nil collectors skip metrics.
func NewOperationLogger(logger *zap.Logger, collectors *metrics.Metrics) *OperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationLogger{logger: logger, metrics: collectors}
}

var _ ledger.OperationLogger = (*OperationLogger)(nil)

// LogOperation implements ledger.OperationLogger.
func (operationLogger *OperationLogger) LogOperation(_ context.Context, entry ledger.OperationLog) {
	operationLogger.metrics.ObserveOperation(entry.Operation, entry.Error)
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("reservation_id", entry.ReservationID),
		zap.String("car_id", entry.CarID),
		zap.String("total_price", entry.TotalPrice.String()),
		zap.String("amount_paid", entry.AmountPaid.String()),
	}
	if entry.Status != "" {
		fields = append(fields, zap.String("status", entry.Status))
	}
	if entry.Error != nil {
		operationLogger.logger.Warn("reservation operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	if len(entry.DroppedDates) > 0 {
		operationLogger.logger.Warn("day edits did not match the ledger", append(fields, zap.Strings("dropped_dates", entry.DroppedDates))...)
	}
	operationLogger.logger.Info("reservation operation", fields...)
}
