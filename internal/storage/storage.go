// internal/storage/storage.go
//
// Keyed blob storage used to persist client state between runs.
// The player profile is serialized by its owner and handed to a Storage
// as an opaque blob under one well-known key.
//
// Backends:
//   - Memory: process-local map (tests, throwaway sessions).
//   - SQLite: single-file database with embedded migrations.
//   - Redis:  shared key/value server.

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no blob exists for the key.
var ErrNotFound = errors.New("storage: not found")

// Storage persists opaque blobs by key.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Load returns the blob stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save writes (or overwrites) the blob stored under key.
	Save(ctx context.Context, key string, blob []byte) error
}
