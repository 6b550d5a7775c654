// Package patient holds the minimal patient directory the clinical modules
// read from. It stores identity only; the clinical record lives in the
// artifact repositories.
package patient

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	BirthDate string    `json:"birth_date,omitempty"`
}

// Directory is the read-mostly patient registry.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Put(ctx context.Context, p *Patient) error
}

type memoryDirectory struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
}

func NewMemoryDirectory() Directory {
	return &memoryDirectory{patients: make(map[uuid.UUID]*Patient)}
}

func (m *memoryDirectory) Get(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryDirectory) List(_ context.Context) ([]*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryDirectory) Put(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}
