package document

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu    sync.RWMutex
	files []*File
}

func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func (m *memoryRepo) Append(_ context.Context, f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	m.files = append(m.files, f)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*File, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*File
	for i := len(m.files) - 1; i >= 0; i-- {
		if m.files[i].PatientID == patientID {
			all = append(all, m.files[i])
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
