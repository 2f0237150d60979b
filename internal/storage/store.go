// Package storage provides abstractions for the client's local key-value persistence.
package storage

import (
	"context"
)

// Store defines the key-value surface the client persists through.
// Values are JSON-encoded strings owned by the caller; the store does not interpret them.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the mirror or the credential layer.
type Store interface {
	// Get returns the value stored under key.
	// A missing key is not an error: ok is false and value is empty.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
