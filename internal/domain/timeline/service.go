package timeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

// sourceLimit bounds how many records each repository contributes. A patient
// history larger than this is beyond what the timeline view renders anyway.
const sourceLimit = 500

// Fallback offsets keep undated records in a stable, plausible position:
// each source sorts behind the ones queried before it.
var fallbackOffset = map[EntryType]time.Duration{
	TypeConsultation: 96 * time.Hour,
	TypePrescription: 72 * time.Hour,
	TypeLabRequest:   48 * time.Hour,
	TypeDocument:     24 * time.Hour,
}

const dateFormat = "02/01/2006"

type Service struct {
	visits        consultation.Source
	prescriptions prescription.Repository
	labs          labrequest.Repository
	files         document.Repository
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(visits consultation.Source, prescriptions prescription.Repository, labs labrequest.Repository, files document.Repository, logger zerolog.Logger) *Service {
	return &Service{
		visits:        visits,
		prescriptions: prescriptions,
		labs:          labs,
		files:         files,
		logger:        logger.With().Str("component", "timeline").Logger(),
		now:           time.Now,
	}
}

// parseWhen resolves a display date to a sortable instant. Records carry
// their timestamps as display strings; a malformed one falls back to a fixed
// per-source offset from now so the entry still lands deterministically.
func (s *Service) parseWhen(raw string, typ EntryType) time.Time {
	if ts, err := time.Parse(workflow.StampTimeFormat, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse(dateFormat, raw); err == nil {
		return ts
	}
	return s.now().Add(-fallbackOffset[typ])
}

// Build aggregates every source into one descending history. filter narrows
// to a single source type; query is a case-insensitive match over title and
// description.
func (s *Service) Build(ctx context.Context, patientID uuid.UUID, filter EntryType, query string) ([]Entry, error) {
	var entries []Entry

	visits, err := s.visits.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	for _, v := range visits {
		entries = append(entries, s.consultEntry(v))
	}

	rx, _, err := s.prescriptions.ListByPatient(ctx, patientID, sourceLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	for _, r := range rx {
		entries = append(entries, s.prescriptionEntry(r))
	}

	labs, _, err := s.labs.ListByPatient(ctx, patientID, sourceLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list lab requests: %w", err)
	}
	for _, l := range labs {
		entries = append(entries, s.labEntry(l))
	}

	files, _, err := s.files.ListByPatient(ctx, patientID, sourceLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	for _, f := range files {
		entries = append(entries, s.fileEntry(f))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TS.After(entries[j].TS)
	})

	if filter != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Type == filter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		matched := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Desc), q) {
				matched = append(matched, e)
			}
		}
		entries = matched
	}
	return entries, nil
}

func (s *Service) consultEntry(v *consultation.Consultation) Entry {
	title := "Consultation"
	if v.Motif != "" {
		title = "Consultation: " + v.Motif
	}
	return Entry{
		ID:      "consult:" + v.ID.String(),
		Type:    TypeConsultation,
		At:      v.Date,
		TS:      s.parseWhen(v.Date, TypeConsultation),
		Title:   title,
		Desc:    v.Notes,
		Payload: ConsultPayload{Motif: v.Motif, Notes: v.Notes},
	}
}

func (s *Service) prescriptionEntry(r *prescription.Record) Entry {
	return Entry{
		ID:    "rx:" + r.ID.String(),
		Type:  TypePrescription,
		At:    r.SentAt,
		TS:    s.parseWhen(r.SentAt, TypePrescription),
		Title: "Prescription " + r.Code,
		Desc:  strings.Join(r.Medications, ", "),
		Payload: PrescriptionPayload{
			Code:        r.Code,
			Version:     r.Version,
			Status:      string(r.Status),
			Medications: r.Medications,
		},
	}
}

func (s *Service) labEntry(l *labrequest.Record) Entry {
	return Entry{
		ID:    "lab:" + l.ID.String(),
		Type:  TypeLabRequest,
		At:    l.SentAt,
		TS:    s.parseWhen(l.SentAt, TypeLabRequest),
		Title: "Lab request " + l.Code,
		Desc:  l.TypeSummary,
		Payload: LabPayload{
			Code:    l.Code,
			Version: l.Version,
			Summary: l.TypeSummary,
			Values:  l.Values,
			Pending: l.Pending(),
		},
	}
}

func (s *Service) fileEntry(f *document.File) Entry {
	at := f.SentAt
	if at == "" {
		at = f.CreatedAt.Format(workflow.StampTimeFormat)
	}
	desc := "Imported file"
	if f.Kind == document.KindGenerated {
		desc = "Generated document"
	}
	return Entry{
		ID:    "doc:" + f.ID.String(),
		Type:  TypeDocument,
		At:    at,
		TS:    s.parseWhen(at, TypeDocument),
		Title: f.Name,
		Desc:  desc,
		Payload: DocumentPayload{
			Name:     f.Name,
			Kind:     string(f.Kind),
			Mime:     f.Mime,
			Editable: f.Editable(),
		},
	}
}

// Find resolves one entry by its prefixed ID.
func (s *Service) Find(ctx context.Context, entryID string) (*Entry, error) {
	prefix, rest, ok := strings.Cut(entryID, ":")
	if !ok {
		return nil, fmt.Errorf("malformed entry id %q", entryID)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("malformed entry id %q", entryID)
	}

	switch prefix {
	case "consult":
		v, err := s.visits.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		e := s.consultEntry(v)
		return &e, nil
	case "rx":
		r, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		e := s.prescriptionEntry(r)
		return &e, nil
	case "lab":
		l, err := s.labs.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		e := s.labEntry(l)
		return &e, nil
	case "doc":
		f, err := s.files.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		e := s.fileEntry(f)
		return &e, nil
	}
	return nil, fmt.Errorf("unknown entry source %q", prefix)
}
