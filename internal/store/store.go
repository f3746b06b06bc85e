// Package store persists entity state records.
//
// Both backends buffer all mutations in memory and flush the whole mapping
// durably on Commit, once per cycle. A crash before Commit loses at most one
// cycle of state; a crash during Commit leaves either the old or the new
// snapshot, never a torn one.
package store

import (
	"sync"

	"github.com/pokewonder/pokewonder/internal/models"
)

// Store is the durable mapping from entity key to state record.
type Store interface {
	// Get returns a copy of the record and whether it exists.
	Get(key string) (models.StateRecord, bool)
	// Put buffers a record in memory until the next Commit.
	Put(key string, record models.StateRecord)
	// Snapshot returns a deep copy of the full in-memory mapping.
	Snapshot() map[string]models.StateRecord
	// Commit durably persists the full mapping.
	Commit() error
	// Close releases backend resources. Uncommitted changes are dropped.
	Close() error
}

// memoryMap is the shared in-memory buffer both backends are built on.
type memoryMap struct {
	mu      sync.Mutex
	records map[string]models.StateRecord
	dirty   map[string]bool
}

func newMemoryMap() *memoryMap {
	return &memoryMap{
		records: make(map[string]models.StateRecord),
		dirty:   make(map[string]bool),
	}
}

func (m *memoryMap) Get(key string) (models.StateRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.StateRecord{}, false
	}
	return rec.Clone(), true
}

func (m *memoryMap) Put(key string, record models.StateRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record.Clone()
	m.dirty[key] = true
}

func (m *memoryMap) Snapshot() map[string]models.StateRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.StateRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v.Clone()
	}
	return out
}

// takeDirty returns the dirty keys and clears the dirty set.
// The caller must restore them if the flush fails.
func (m *memoryMap) takeDirty() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dirty
	m.dirty = make(map[string]bool)
	return d
}

func (m *memoryMap) restoreDirty(keys map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range keys {
		m.dirty[k] = true
	}
}
