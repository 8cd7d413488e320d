package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBackend keeps collections in process memory.
type MemoryBackend struct {
	mu          sync.Mutex
	collections map[string][]json.RawMessage
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: map[string][]json.RawMessage{}}
}

func (backend *MemoryBackend) ReadCollection(_ context.Context, name string) ([]json.RawMessage, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	stored := backend.collections[name]
	records := make([]json.RawMessage, len(stored))
	copy(records, stored)
	return records, nil
}

func (backend *MemoryBackend) WriteCollection(_ context.Context, name string, records []json.RawMessage) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	stored := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		stored = append(stored, append(json.RawMessage(nil), record...))
	}
	backend.collections[name] = stored
	return nil
}

// Seed loads raw collection data in any shape NormalizeCollection accepts.
func (backend *MemoryBackend) Seed(name string, data []byte) error {
	records, err := NormalizeCollection(data)
	if err != nil {
		return err
	}
	return backend.WriteCollection(context.Background(), name, records)
}

func (backend *MemoryBackend) WithTx(ctx context.Context, fn func(ctx context.Context, backend Backend) error) error {
	return fn(ctx, backend)
}
