package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the token record as a flat JSON file with secure
// permissions. Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Load returns the stored record, or (nil, nil) if the file does not exist.
// Returns StorageError if the file is unreadable, malformed, or has
// insecure permissions.
func (f *FileStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Backend: "file", Op: "load", Err: err}
	}
	if info.Mode().Perm() != 0600 {
		return nil, &StorageError{
			Backend: "file",
			Op:      "load",
			Err:     fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm()),
		}
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, &StorageError{Backend: "file", Op: "load", Err: err}
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &StorageError{Backend: "file", Op: "load", Err: err}
	}
	return &record, nil
}

// Save atomically writes the record using temp file + rename for crash
// safety. Sets file permissions to 0600 (owner read/write only).
func (f *FileStore) Save(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return &StorageError{Backend: "file", Op: "save", Err: fmt.Errorf("nil record")}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, f.filePath); err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}

	// Set secure file permissions (0600 = rw-------)
	if err := os.Chmod(f.filePath, 0600); err != nil {
		return &StorageError{Backend: "file", Op: "save", Err: err}
	}

	return nil
}

// Clear deletes the token file. A missing file is not an error.
func (f *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(f.filePath); err != nil && !os.IsNotExist(err) {
		return &StorageError{Backend: "file", Op: "clear", Err: err}
	}
	return nil
}
