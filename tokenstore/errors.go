package tokenstore

import "fmt"

// StorageError reports a persistence failure in a concrete backend.
// The Fallback composite absorbs these and degrades instead of surfacing them.
type StorageError struct {
	Backend string // "file", "keyring"
	Op      string // "save", "load", "clear"
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token storage %s failed (%s backend): %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
