package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

// Repository is the append-only prescription store. Append atomically
// inactivates the patient's previous active record before inserting the new
// one; no operation ever removes a record.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	Active(ctx context.Context, patientID uuid.UUID) (*Record, error)
	ByLineage(ctx context.Context, code string) ([]*Record, error)
}
