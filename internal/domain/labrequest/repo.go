package labrequest

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lab request not found")

// Repository is the append-only lab request store. SetResults fills analyte
// values in place; nothing ever removes a record.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	SetResults(ctx context.Context, id uuid.UUID, values []ResultValue) error
}
