package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	recordstore "github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	constraintCollectionRecord = "idx_records_collection_record"
	pgUniqueViolationCode      = "23505"
	sqliteConstraintCode       = 19
	insertBatchSize            = 200
	errorOperationStore        = "gormstore"
	errorSubjectRecord         = "record"
	errorCodeDelete            = "delete"
	errorCodeDuplicate         = "duplicate"
	errorCodeInsert            = "insert"
	errorCodeList              = "list"
	errorCodeMigrate           = "migrate"
)

// Store implements recordstore.Backend on a single records table.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates or updates the records table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return ledger.WrapError(errorOperationStore, errorSubjectRecord, errorCodeMigrate, err)
	}
	return nil
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, backend recordstore.Backend) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction, now: store.now})
	})
}

// ReadCollection returns the payloads of name in position order.
func (store *Store) ReadCollection(ctx context.Context, name string) ([]json.RawMessage, error) {
	var rows []Record
	err := store.db.WithContext(ctx).
		Where("collection = ?", name).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorCodeList, err)
	}
	records := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		records = append(records, json.RawMessage(row.Payload))
	}
	return records, nil
}

// WriteCollection atomically replaces every record of name.
func (store *Store) WriteCollection(ctx context.Context, name string, records []json.RawMessage) error {
	updatedAt := store.now()
	rows := make([]Record, 0, len(records))
	for position, record := range records {
		rows = append(rows, Record{
			Collection: name,
			Position:   position,
			RecordID:   recordIDPointer(record),
			Payload:    datatypes.JSON(record),
			UpdatedAt:  updatedAt,
		})
	}
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if err := transaction.Where("collection = ?", name).Delete(&Record{}).Error; err != nil {
			return wrapStoreError(errorCodeDelete, err)
		}
		if len(rows) == 0 {
			return nil
		}
		err := transaction.CreateInBatches(rows, insertBatchSize).Error
		if isDuplicateRecord(err) {
			return wrapStoreError(errorCodeDuplicate, fmt.Errorf("%w: collection %s", recordstore.ErrDuplicateRecord, name))
		}
		if err != nil {
			return wrapStoreError(errorCodeInsert, err)
		}
		return nil
	})
}

func recordIDPointer(record json.RawMessage) *string {
	recordID := recordstore.RecordID(record)
	if recordID == "" {
		return nil
	}
	return &recordID
}

func wrapStoreError(code string, err error) error {
	return ledger.WrapError(errorOperationStore, errorSubjectRecord, code, err)
}

func isDuplicateRecord(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintCollectionRecord
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
