// Package tokenstore provides persistent storage for OAuth token records.
//
// Supports four storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Memory: Process-lifetime storage for tests and ephemeral sessions
//   - Fallback: Composite that prefers one store and degrades to another on failure
//
// All backends persist the same Record and are interchangeable behind the
// Store interface. Only the Fallback composite is best-effort; the concrete
// backends surface failures as StorageError.
package tokenstore
