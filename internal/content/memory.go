package content

import (
	"context"
	"fmt"
	"sync"

	"bvc-go/internal/bvc"
)

// MemoryStore is an in-memory implementation of bvc.ContentStore, keyed by
// content digest. Useful for tests and offline development. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	Uploads int

	// Unavailable makes Upload fall back to a simulated identifier,
	// mirroring the real client's degraded mode.
	Unavailable bool
}

var _ bvc.ContentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(_ context.Context, data []byte) (*bvc.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads++
	if m.Unavailable {
		return &bvc.UploadResult{
			ID:        bvc.SimulatedIDPrefix + bvc.Digest(data)[:46],
			Simulated: true,
		}, nil
	}
	id := "mem-" + bvc.Digest(data)
	m.blobs[id] = append([]byte{}, data...)
	return &bvc.UploadResult{ID: id}, nil
}

func (m *MemoryStore) Download(_ context.Context, id string) ([]byte, error) {
	if bvc.IsSimulatedID(id) {
		return nil, fmt.Errorf("content id %s is simulated and not retrievable", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("content not found: %s", id)
	}
	return append([]byte{}, data...), nil
}
