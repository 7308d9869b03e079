package tokenstore

import "context"

// Store reads and writes token records to persistent storage.
//
// The OAuth flow requires writable storage: every token mutation is
// followed by a full Save of the resulting record.
type Store interface {
	// Save persists the record, replacing any previous one.
	Save(ctx context.Context, record *Record) error

	// Load returns the stored record, or (nil, nil) if nothing is stored.
	Load(ctx context.Context) (*Record, error)

	// Clear removes the stored record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
