// Package pgstore keeps fleet collections in PostgreSQL through a pgx pool.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	recordstore "github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scheme selects this backend in a store URL; the rest of the URL is a
// regular postgres connection string.
const Scheme = "pgx://"

const (
	constraintCollectionRecord = "fleet_records_collection_record_id_key"
	pgUniqueViolationCode      = "23505"
	// advisoryLockKey serializes read-modify-write transactions across processes.
	advisoryLockKey         = 7340512
	errorOperationStore     = "pgstore"
	errorSubjectRecord      = "record"
	errorSubjectTransaction = "transaction"
	errorCodeBegin          = "begin"
	errorCodeCommit         = "commit"
	errorCodeConnect        = "connect"
	errorCodeDelete         = "delete"
	errorCodeDuplicate      = "duplicate"
	errorCodeInsert         = "insert"
	errorCodeList           = "list"
	errorCodeLock           = "lock"
	errorCodeMigrate        = "migrate"

	sqlCreateRecords = `
		create table if not exists fleet_records (
			collection text not null,
			position integer not null,
			record_id text,
			payload jsonb not null,
			updated_at timestamptz not null default now(),
			primary key (collection, position),
			constraint fleet_records_collection_record_id_key unique (collection, record_id)
		)
	`

	sqlSelectCollection = `
		select payload::text from fleet_records
		where collection = $1
		order by position asc
	`

	sqlDeleteCollection = `delete from fleet_records where collection = $1`

	sqlInsertRecord = `
		insert into fleet_records(collection, position, record_id, payload)
		values ($1, $2, nullif($3, ''), $4::jsonb)
	`

	sqlAdvisoryLock = `select pg_advisory_xact_lock($1)`
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults
}

// Store implements recordstore.Backend using a pgx connection pool (autocommit).
type Store struct {
	pool *pgxpool.Pool
}

// TxStore implements recordstore.Backend for an active transaction.
type TxStore struct {
	tx pgx.Tx
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to rawURL, which may carry the pgx:// scheme, and creates the
// records table when missing.
func Open(ctx context.Context, rawURL string) (*Store, func() error, error) {
	pool, err := pgxpool.New(ctx, ConnString(rawURL))
	if err != nil {
		return nil, nil, wrapStoreError(errorSubjectRecord, errorCodeConnect, err)
	}
	cleanup := func() error {
		pool.Close()
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		_ = cleanup()
		return nil, nil, wrapStoreError(errorSubjectRecord, errorCodeConnect, err)
	}
	if _, err := pool.Exec(ctx, sqlCreateRecords); err != nil {
		_ = cleanup()
		return nil, nil, wrapStoreError(errorSubjectRecord, errorCodeMigrate, err)
	}
	return New(pool), cleanup, nil
}

// ConnString rewrites a pgx:// store URL into a postgres connection string.
func ConnString(rawURL string) string {
	if strings.HasPrefix(rawURL, Scheme) {
		return "postgres://" + strings.TrimPrefix(rawURL, Scheme)
	}
	return rawURL
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, backend recordstore.Backend) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	if _, err := tx.Exec(ctx, sqlAdvisoryLock, advisoryLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return wrapStoreError(errorSubjectTransaction, errorCodeLock, err)
	}
	if err := fn(ctx, &TxStore{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) ReadCollection(ctx context.Context, name string) ([]json.RawMessage, error) {
	return readCollection(ctx, store.pool, name)
}

// WriteCollection replaces name inside its own transaction.
func (store *Store) WriteCollection(ctx context.Context, name string, records []json.RawMessage) error {
	return store.WithTx(ctx, func(ctx context.Context, backend recordstore.Backend) error {
		return backend.WriteCollection(ctx, name, records)
	})
}

func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, backend recordstore.Backend) error) error {
	return fn(ctx, store)
}

func (store *TxStore) ReadCollection(ctx context.Context, name string) ([]json.RawMessage, error) {
	return readCollection(ctx, store.tx, name)
}

func (store *TxStore) WriteCollection(ctx context.Context, name string, records []json.RawMessage) error {
	return writeCollection(ctx, store.tx, name, records)
}

func readCollection(ctx context.Context, db querier, name string) ([]json.RawMessage, error) {
	rows, err := db.Query(ctx, sqlSelectCollection, name)
	if err != nil {
		return nil, wrapStoreError(errorSubjectRecord, errorCodeList, err)
	}
	defer rows.Close()
	records := []json.RawMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, wrapStoreError(errorSubjectRecord, errorCodeList, err)
		}
		records = append(records, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectRecord, errorCodeList, err)
	}
	return records, nil
}

func writeCollection(ctx context.Context, db querier, name string, records []json.RawMessage) error {
	if _, err := db.Exec(ctx, sqlDeleteCollection, name); err != nil {
		return wrapStoreError(errorSubjectRecord, errorCodeDelete, err)
	}
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for position, record := range records {
		batch.Queue(sqlInsertRecord, name, position, recordstore.RecordID(record), string(record))
	}
	results := db.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			if isDuplicateRecord(err) {
				return wrapStoreError(errorSubjectRecord, errorCodeDuplicate, fmt.Errorf("%w: collection %s", recordstore.ErrDuplicateRecord, name))
			}
			return wrapStoreError(errorSubjectRecord, errorCodeInsert, err)
		}
	}
	if err := results.Close(); err != nil {
		return wrapStoreError(errorSubjectRecord, errorCodeInsert, err)
	}
	return nil
}

func isDuplicateRecord(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintCollectionRecord
	}
	return false
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}
