// Package cache holds discovered icon URLs for the lifetime of the process.
package cache

import "sync"

// Store maps a normalized company URL to its icon URL.
// Callers own the policy of what gets stored; implementations only keep it.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Len() int
}

// MemoryStore is an unbounded in-memory Store. Entries never expire.
// It is safe for concurrent use; concurrent Sets on the same key are
// last-write-wins.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Store = (*MemoryStore)(nil)
