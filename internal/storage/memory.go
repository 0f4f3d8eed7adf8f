// internal/storage/memory.go
//
// In-memory implementation of Storage.
//
// Characteristics:
//   - Blobs keyed by name in a map, copied on the way in and out.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package storage

import (
	"context"
	"sync"
)

// Memory is a map-based Storage.
type Memory struct {
	mu    sync.RWMutex      // guards blobs
	blobs map[string][]byte // keyed by storage key
}

// NewMemory constructs an empty in-memory Storage.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Load returns a copy of the blob under key.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Save stores a copy of blob under key.
func (m *Memory) Save(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}
