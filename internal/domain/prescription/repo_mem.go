package prescription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo keeps records in append order. It is the default store when no
// database is configured and the fixture store in tests.
type memoryRepo struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func (m *memoryRepo) Append(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	for _, prev := range m.records {
		if prev.PatientID == r.PatientID && prev.Status == StatusActive {
			prev.Status = StatusInactive
		}
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// newest first
	var all []*Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].PatientID == patientID {
			all = append(all, m.records[i])
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memoryRepo) Active(_ context.Context, patientID uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.PatientID == patientID && r.Status == StatusActive {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) ByLineage(_ context.Context, code string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for _, r := range m.records {
		if r.Code == code {
			out = append(out, r)
		}
	}
	return out, nil
}
