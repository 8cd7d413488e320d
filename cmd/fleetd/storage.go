package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/store/filestore"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"go.uber.org/zap"
)

const (
	schemeFile     = "file://"
	schemeMemory   = "memory://"
	schemeSQLite   = "sqlite://"
	schemePostgres = "postgres://"
	schemePostgreS = "postgresql://"
)

// openBackend picks the storage backend for rawURL. The returned cleanup
// releases database connections and is safe to call for every backend.
func openBackend(ctx context.Context, rawURL string, logger *zap.Logger) (store.Backend, func() error, error) {
	noCleanup := func() error { return nil }
	switch {
	case strings.HasPrefix(rawURL, schemeMemory):
		return store.NewMemoryBackend(), noCleanup, nil
	case strings.HasPrefix(rawURL, schemeFile):
		dir := strings.TrimPrefix(rawURL, schemeFile)
		if dir == "" {
			dir = "./db"
		}
		fileStore, err := filestore.New(dir, logger.Named("filestore"))
		if err != nil {
			return nil, nil, err
		}
		return fileStore, noCleanup, nil
	case strings.HasPrefix(rawURL, schemeSQLite), strings.HasPrefix(rawURL, schemePostgres), strings.HasPrefix(rawURL, schemePostgreS):
		db, cleanup, err := gormstore.Open(ctx, rawURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database open: %w", err)
		}
		return gormstore.New(db), cleanup, nil
	case strings.HasPrefix(rawURL, pgstore.Scheme):
		pgStore, cleanup, err := pgstore.Open(ctx, rawURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database open: %w", err)
		}
		return pgStore, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store url %q", redactStoreURL(rawURL))
	}
}

func openRepository(ctx context.Context, rawURL string, calendar ledger.Calendar, logger *zap.Logger) (*store.Repository, func() error, error) {
	backend, cleanup, err := openBackend(ctx, rawURL, logger)
	if err != nil {
		return nil, nil, err
	}
	repository, err := store.NewRepository(backend, calendar)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	logger.Info("store opened", zap.String("store", redactStoreURL(rawURL)))
	return repository, cleanup, nil
}

// redactStoreURL hides the password of database URLs.
func redactStoreURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.User == nil {
		return rawURL
	}
	return parsed.Redacted()
}
