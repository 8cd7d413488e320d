// Package store maps the fleet record collections onto a raw JSON backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// Collection names, one file or table partition each.
const (
	CollectionCars            = "cars"
	CollectionCustomers       = "customers"
	CollectionReservations    = "reservations"
	CollectionUsers           = "users"
	CollectionCarExpenses     = "car_expenses"
	CollectionAdminExpenses   = "admin_expenses"
	CollectionOfficeIncidents = "office_incidents"
	CollectionFines           = "fines"
	CollectionIncomes         = "incomes"
)

const (
	errorOperationStore = "store"
	errorCodeRead       = "read"
	errorCodeWrite      = "write"
	errorCodeDecode     = "decode"
	errorCodeEncode     = "encode"
)

// ErrDuplicateRecord reports two records with the same id in one collection.
var ErrDuplicateRecord = errors.New("duplicate record id")

// Backend reads and replaces whole named collections of raw JSON records.
type Backend interface {
	ReadCollection(ctx context.Context, name string) ([]json.RawMessage, error)
	WriteCollection(ctx context.Context, name string, records []json.RawMessage) error
	WithTx(ctx context.Context, fn func(ctx context.Context, backend Backend) error) error
}

type itemsEnvelope struct {
	Items []json.RawMessage `json:"items"`
}

// NormalizeCollection accepts a bare array, an {"items": [...]} envelope or
// blank input and returns the records.
func NormalizeCollection(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrStorageCorrupted, err)
		}
		if records == nil {
			records = []json.RawMessage{}
		}
		return records, nil
	case '{':
		var envelope itemsEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrStorageCorrupted, err)
		}
		if envelope.Items == nil {
			return []json.RawMessage{}, nil
		}
		return envelope.Items, nil
	default:
		return nil, fmt.Errorf("%w: collection is neither an array nor an items envelope", ledger.ErrStorageCorrupted)
	}
}

// RecordID extracts the "id" field of a raw record, or "" when absent.
func RecordID(record json.RawMessage) string {
	var identified struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(record, &identified); err != nil {
		return ""
	}
	return identified.ID
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}
