package directory

import (
	"context"
	"fmt"
	"sync"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Memory is a map-backed catalog for tests and single-node dev setups.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Put stores or replaces the entry for ref.
func (m *Memory) Put(ref id.AssetRef, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ref.Key()] = entry
}

// SetReferenceCount adjusts an existing entry's live reference count.
func (m *Memory) SetReferenceCount(ref id.AssetRef, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[ref.Key()]
	if !ok {
		return
	}
	entry.ReferenceCount = count
	m.entries[ref.Key()] = entry
}

// Remove drops the entry for ref, simulating catalog deletion.
func (m *Memory) Remove(ref id.AssetRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, ref.Key())
}

func (m *Memory) Lookup(_ context.Context, ref id.AssetRef) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[ref.Key()]
	if !ok {
		return Entry{}, fmt.Errorf("asset %s: %w", ref.Key(), sentinel.ErrNotFound)
	}
	return entry, nil
}
