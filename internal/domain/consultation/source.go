package consultation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("consultation not found")

// Source supplies the visit history. Add exists for seeding and for the
// scheduling feed; UpdateNotes is the only clinical mutation.
type Source interface {
	Add(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
}

type memorySource struct {
	mu     sync.RWMutex
	visits []*Consultation
}

func NewMemorySource() Source {
	return &memorySource{}
}

func (m *memorySource) Add(_ context.Context, c *Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.visits = append(m.visits, c)
	return nil
}

func (m *memorySource) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.visits {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memorySource) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Consultation
	for _, c := range m.visits {
		if c.PatientID == patientID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memorySource) UpdateNotes(_ context.Context, id uuid.UUID, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.visits {
		if c.ID == id {
			c.Notes = notes
			return nil
		}
	}
	return ErrNotFound
}
