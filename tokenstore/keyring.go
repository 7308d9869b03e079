package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists the token record in OS-native secure credential
// storage. Uses macOS Keychain, Windows Credential Manager, or Linux
// Secret Service. The record is stored as a JSON string under the given
// service and user identifiers.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Save persists the record to the system keyring, overwriting any existing value.
func (k *KeyringStore) Save(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return &StorageError{Backend: "keyring", Op: "save", Err: fmt.Errorf("nil record")}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Backend: "keyring", Op: "save", Err: err}
	}

	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return &StorageError{Backend: "keyring", Op: "save", Err: err}
	}
	return nil
}

// Load returns the record from the system keyring, or (nil, nil) if no
// entry exists for the configured service and user.
func (k *KeyringStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Backend: "keyring", Op: "load", Err: err}
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, &StorageError{Backend: "keyring", Op: "load", Err: err}
	}
	return &record, nil
}

// Clear removes the keyring entry. A missing entry is not an error.
func (k *KeyringStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &StorageError{Backend: "keyring", Op: "clear", Err: err}
	}
	return nil
}
