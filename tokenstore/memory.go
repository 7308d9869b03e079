package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore holds the token record for the process lifetime only.
// Intended for tests and ephemeral sessions. Both Save and Load copy the
// record, so callers can never mutate stored state by reference.
type MemoryStore struct {
	mu     sync.Mutex
	record *Record
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a copy of the record in memory.
func (m *MemoryStore) Save(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = record.Clone()
	return nil
}

// Load returns a copy of the stored record, or (nil, nil) if empty.
func (m *MemoryStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Clone(), nil
}

// Clear drops the stored record.
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}
