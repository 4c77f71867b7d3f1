package kv

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

type memoryEntry struct {
	data    []byte
	version int64
}

// MemoryStore is a process-local VersionedStore. It is the test double for
// the persistent backends and the backend behind the "memory" setting.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Read returns a copy of the value stored under key.
func (m *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, _, err := m.ReadVersioned(ctx, key)
	return data, err
}

// ReadVersioned returns a copy of the value stored under key with its version.
func (m *MemoryStore) ReadVersioned(_ context.Context, key string) ([]byte, int64, error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, 0, types.ErrStoreClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, types.ErrKeyNotFound
	}
	return clone(e.data), e.version, nil
}

// Write stores a copy of data under key.
func (m *MemoryStore) Write(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	e := m.entries[key]
	m.entries[key] = memoryEntry{data: clone(data), version: e.version + 1}
	return nil
}

// CompareAndSwap stores data only if the current version equals expected.
func (m *MemoryStore) CompareAndSwap(_ context.Context, key string, data []byte, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, types.ErrStoreClosed
	}
	e := m.entries[key]
	if e.version != expected {
		return e.version, types.ErrVersionConflict
	}
	m.entries[key] = memoryEntry{data: clone(data), version: expected + 1}
	return expected + 1, nil
}

// Close marks the store closed. Idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
