package server

import (
	"sync"

	"github.com/micromet/fvspart/internal/database"
)

// MemorySource keeps recent run results in memory. It backs the API when no
// results database is configured, e.g. in live-ingest daemon mode.
type MemorySource struct {
	mu       sync.RWMutex
	runs     map[string][]database.PartitionRecord
	order    []string
	capacity int
}

// NewMemorySource creates a source retaining up to capacity runs
func NewMemorySource(capacity int) *MemorySource {
	if capacity < 1 {
		capacity = 1
	}
	return &MemorySource{
		runs:     make(map[string][]database.PartitionRecord),
		capacity: capacity,
	}
}

// Add appends one record to its run, evicting the oldest run when over
// capacity.
func (m *MemorySource) Add(r database.PartitionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[r.RunID]; !ok {
		m.order = append(m.order, r.RunID)
		if len(m.order) > m.capacity {
			evicted := m.order[0]
			m.order = m.order[1:]
			delete(m.runs, evicted)
		}
	}
	m.runs[r.RunID] = append(m.runs[r.RunID], r)
}

// LatestRunID returns the most recently started run
func (m *MemorySource) LatestRunID() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return "", nil
	}
	return m.order[len(m.order)-1], nil
}

// RecordsForRun returns all records of one run in insertion order
func (m *MemorySource) RecordsForRun(runID string) ([]database.PartitionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.runs[runID]
	out := make([]database.PartitionRecord, len(records))
	copy(out, records)
	return out, nil
}
