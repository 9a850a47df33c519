package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shoplens/backend/internal/domain"
)

// MemoryStore is an in-memory implementation of domain.ResearchRepository
// and domain.SettingsRepository. Used in tests and as a fallback when no
// database path is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]domain.ResearchEntry
	inserted map[string]int64 // insertion sequence, tiebreak for equal timestamps
	settings map[string]string
	seq      int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]domain.ResearchEntry),
		inserted: make(map[string]int64),
		settings: make(map[string]string),
	}
}

// List returns all research entries, most recent first
func (m *MemoryStore) List(ctx context.Context) ([]domain.ResearchEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(), nil
}

// Get returns the entry with the given id
func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.ResearchEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return &entry, nil
}

// Put inserts or replaces the entry keyed by its ID
func (m *MemoryStore) Put(ctx context.Context, entry domain.ResearchEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.ID]; !ok {
		m.seq++
		m.inserted[entry.ID] = m.seq
	}
	m.entries[entry.ID] = entry
	return nil
}

// Delete removes the entry with the given id; absent ids are not an error
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	delete(m.inserted, id)
	return nil
}

// DeleteBefore removes entries whose LastUsed is older than cutoff
func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.entries {
		if entry.LastUsed.Before(cutoff) {
			delete(m.entries, id)
			delete(m.inserted, id)
			removed++
		}
	}
	return removed, nil
}

// TrimTo keeps only the n most recent entries
func (m *MemoryStore) TrimTo(ctx context.Context, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n < 0 {
		n = 0
	}
	sorted := m.sortedLocked()
	for i := n; i < len(sorted); i++ {
		delete(m.entries, sorted[i].ID)
		delete(m.inserted, sorted[i].ID)
	}
	return nil
}

// GetSetting returns the stored value for key, or "" when unset
func (m *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

// PutSetting stores the value for key, replacing any previous value
func (m *MemoryStore) PutSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// sortedLocked returns entries most recent first; callers hold the lock
func (m *MemoryStore) sortedLocked() []domain.ResearchEntry {
	entries := make([]domain.ResearchEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return m.inserted[entries[i].ID] > m.inserted[entries[j].ID]
	})
	return entries
}
