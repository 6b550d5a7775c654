package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "prescription").Logger()}
}

// AppendPrescription implements the workflow send seam. The new record is the
// active one; the repository inactivates its predecessor atomically.
func (s *Service) AppendPrescription(ctx context.Context, patientID uuid.UUID, items []workflow.PrescriptionItem, note string, to workflow.Recipients, stamp workflow.VersionStamp) (workflow.RecordRef, error) {
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Medication)
	}
	rec := &Record{
		PatientID:   patientID,
		Code:        stamp.Code,
		Version:     stamp.Version,
		Status:      StatusActive,
		Medications: labels,
		Items:       items,
		Note:        note,
		To:          to,
		SentAt:      stamp.SentAt,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return workflow.RecordRef{}, err
	}
	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Str("code", rec.Code).
		Int("version", rec.Version).
		Msg("prescription recorded")
	return workflow.RecordRef{ID: rec.ID, Code: rec.Code, Version: rec.Version}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Active returns the patient's current prescription, or ErrNotFound when the
// patient has none or every version has been superseded.
func (s *Service) Active(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return s.repo.Active(ctx, patientID)
}

// History lists every version of a lineage in ascending version order.
func (s *Service) History(ctx context.Context, code string) ([]*Record, error) {
	return s.repo.ByLineage(ctx, code)
}
