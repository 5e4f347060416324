package metadata

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// PutErr, when set, is returned by every Put.
	PutErr error
	// GetErr, when set, is returned by every Get.
	GetErr error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func memoryKey(machine, key string) string { return machine + "/" + key }

// Get reads a value.
func (m *MemoryStore) Get(_ context.Context, machine, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.values[memoryKey(machine, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put writes a value.
func (m *MemoryStore) Put(_ context.Context, machine, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.values[memoryKey(machine, key)] = append([]byte(nil), value...)
	return nil
}

// Delete removes a value.
func (m *MemoryStore) Delete(_ context.Context, machine, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, memoryKey(machine, key))
	return nil
}

// Has reports whether a value is stored.
func (m *MemoryStore) Has(machine, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[memoryKey(machine, key)]
	return ok
}
