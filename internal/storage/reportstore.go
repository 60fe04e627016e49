package storage

import (
	"sync"

	"github.com/example/ride-guardian/internal/models"
)

// ReportStore keeps finished safety reports for later download.
type ReportStore interface {
	SaveReport(r models.Report) error
	Report(rideID string) (models.Report, bool)
}

// MemoryStore holds at most limit reports and evicts the oldest first.
// Reports live for the process lifetime only.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
	order   []string
	limit   int
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryStore{reports: make(map[string]models.Report), limit: limit}
}

func (m *MemoryStore) SaveReport(r models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.RideID]; !ok {
		m.order = append(m.order, r.RideID)
	}
	m.reports[r.RideID] = r
	for len(m.order) > m.limit {
		delete(m.reports, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Report(rideID string) (models.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[rideID]
	return r, ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}
