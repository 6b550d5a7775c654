package labrequest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "labrequest").Logger()}
}

// summarize builds the compact type label shown in lists: the first three
// panel labels, then "+N" for the rest. A custom analysis counts as one more
// entry at the end.
func summarize(labels []string, custom string) string {
	all := labels
	if strings.TrimSpace(custom) != "" {
		all = append(append([]string{}, labels...), strings.TrimSpace(custom))
	}
	if len(all) == 0 {
		return ""
	}
	if len(all) <= 3 {
		return strings.Join(all, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(all[:3], ", "), len(all)-3)
}

// AppendLabRequest implements the workflow send seam. Every analyte starts
// with the placeholder value until results arrive.
func (s *Service) AppendLabRequest(ctx context.Context, patientID uuid.UUID, labels []string, custom, note string, to workflow.Recipients, stamp workflow.VersionStamp) (workflow.RecordRef, error) {
	values := make([]ResultValue, 0, len(labels)+1)
	for _, l := range labels {
		values = append(values, ResultValue{Name: l, Value: Placeholder})
	}
	if strings.TrimSpace(custom) != "" {
		values = append(values, ResultValue{Name: strings.TrimSpace(custom), Value: Placeholder})
	}

	rec := &Record{
		PatientID:   patientID,
		Code:        stamp.Code,
		Version:     stamp.Version,
		TypeSummary: summarize(labels, custom),
		Panels:      labels,
		Custom:      strings.TrimSpace(custom),
		Values:      values,
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
		Str("summary", rec.TypeSummary).
		Msg("lab request recorded")
	return workflow.RecordRef{ID: rec.ID, Code: rec.Code, Version: rec.Version}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// SetResults records analyte values from the lab. Names not present on the
// request are rejected so a result upload cannot invent analytes.
func (s *Service) SetResults(ctx context.Context, id uuid.UUID, incoming []ResultValue) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(incoming))
	for _, v := range incoming {
		byName[v.Name] = v.Value
	}
	merged := make([]ResultValue, len(rec.Values))
	for i, v := range rec.Values {
		merged[i] = v
		if val, ok := byName[v.Name]; ok && strings.TrimSpace(val) != "" {
			merged[i].Value = val
		}
		delete(byName, v.Name)
	}
	if len(byName) > 0 {
		for name := range byName {
			return nil, fmt.Errorf("unknown analyte %q", name)
		}
	}

	if err := s.repo.SetResults(ctx, id, merged); err != nil {
		return nil, err
	}
	rec.Values = merged
	return rec, nil
}
