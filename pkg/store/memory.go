package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store keeping insertion order. Used by tests
// and as the working set behind the file-backed store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	byID    map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Append adds a new entry, assigning an id when absent
func (m *MemoryStore) Append(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, exists := m.byID[entry.ID]; exists {
		return fmt.Errorf("append: track %s already in catalog", entry.ID)
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	m.byID[entry.ID] = len(m.entries)
	m.entries = append(m.entries, entry)
	return nil
}

// Update supersedes an existing entry wholesale, keeping its catalog
// position
func (m *MemoryStore) Update(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byID[entry.ID]
	if !ok {
		return fmt.Errorf("update %s: %w", entry.ID, ErrNotFound)
	}
	m.entries[idx] = entry
	return nil
}

// Get returns an entry by id
func (m *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return m.entries[idx], nil
}

// LoadAll returns a snapshot of the catalog in insertion order
func (m *MemoryStore) LoadAll(_ context.Context) (*Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*Entry, len(m.entries))
	copy(entries, m.entries)

	matrix := make([][]float64, len(entries))
	for i, e := range entries {
		matrix[i] = e.Vector
	}

	return &Catalog{Entries: entries, Matrix: matrix}, nil
}
