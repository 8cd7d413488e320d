// Package filestore keeps each collection in a JSON file under one directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"go.uber.org/zap"
)

const (
	fileExtension  = ".json"
	filePermission = 0o644
	dirPermission  = 0o755
)

var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store implements store.Backend over <dir>/<collection>.json files.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates dir when missing and returns a Store rooted there.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// ReadCollection returns the records of name; a missing or blank file is empty.
func (fileStore *Store) ReadCollection(_ context.Context, name string) ([]json.RawMessage, error) {
	path, err := fileStore.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", path, err)
	}
	records, err := store.NormalizeCollection(data)
	if err != nil {
		fileStore.logger.Error("collection file is corrupted", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("filestore: %s: %w", path, err)
	}
	return records, nil
}

// WriteCollection writes records as a bare array through a temp file and rename.
func (fileStore *Store) WriteCollection(_ context.Context, name string, records []json.RawMessage) error {
	path, err := fileStore.path(name)
	if err != nil {
		return err
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", name, err)
	}
	temporary, err := os.CreateTemp(fileStore.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: temp file for %s: %w", name, err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		_ = temporary.Close()
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("filestore: write %s: %w", temporaryPath, err)
	}
	if err := temporary.Close(); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("filestore: close %s: %w", temporaryPath, err)
	}
	if err := os.Chmod(temporaryPath, filePermission); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("filestore: chmod %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("filestore: replace %s: %w", path, err)
	}
	fileStore.logger.Debug("collection written", zap.String("collection", name), zap.Int("records", len(records)))
	return nil
}

// WithTx runs fn directly; file writes are individually atomic and last writer wins.
func (fileStore *Store) WithTx(ctx context.Context, fn func(ctx context.Context, backend store.Backend) error) error {
	return fn(ctx, fileStore)
}

func (fileStore *Store) path(name string) (string, error) {
	if !collectionNamePattern.MatchString(name) {
		return "", fmt.Errorf("filestore: invalid collection name %q", name)
	}
	return filepath.Join(fileStore.dir, name+fileExtension), nil
}
