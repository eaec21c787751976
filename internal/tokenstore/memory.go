package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
}

func (m *MemoryStore) SetAccess(_ context.Context, refresh, access string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if refresh == "" || m.refresh != refresh {
		return false
	}
	m.access = access
	return true
}

func (m *MemoryStore) Access(context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *MemoryStore) Refresh(context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *MemoryStore) Clear(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
}
