package document

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// Repository is the append-only file cabinet. Files are never updated or
// removed; a new document version is a new entry.
type Repository interface {
	Append(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id uuid.UUID) (*File, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*File, int, error)
}
