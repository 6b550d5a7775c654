package inspector

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/timeline"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type Service struct {
	timeline      *timeline.Service
	workflows     *workflow.Service
	prescriptions prescription.Repository
	labs          labrequest.Repository
	files         document.Repository
	logger        zerolog.Logger
}

func NewService(tl *timeline.Service, wf *workflow.Service, prescriptions prescription.Repository, labs labrequest.Repository, files document.Repository, logger zerolog.Logger) *Service {
	return &Service{
		timeline:      tl,
		workflows:     wf,
		prescriptions: prescriptions,
		labs:          labs,
		files:         files,
		logger:        logger.With().Str("component", "inspector").Logger(),
	}
}

// Inspect returns the full detail behind a timeline entry.
func (s *Service) Inspect(ctx context.Context, entryID string) (*timeline.Entry, error) {
	return s.timeline.Find(ctx, entryID)
}

// OpenEdit rebuilds a workflow session over a sent record. The session opens
// on the send confirmation; the caller must still issue an explicit modify
// before the draft becomes mutable, exactly as with a freshly sent artifact.
func (s *Service) OpenEdit(ctx context.Context, entryID string) (*workflow.Session, error) {
	prefix, rest, ok := strings.Cut(entryID, ":")
	if !ok {
		return nil, fmt.Errorf("malformed entry id %q", entryID)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("malformed entry id %q", entryID)
	}

	var (
		patientID uuid.UUID
		draft     workflow.Draft
		stamp     workflow.VersionStamp
	)
	switch prefix {
	case "rx":
		r, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		patientID = r.PatientID
		draft = ReconstructPrescriptionDraft(r)
		stamp = workflow.VersionStamp{Code: r.Code, Version: r.Version, SentAt: r.SentAt}
	case "lab":
		l, err := s.labs.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		patientID = l.PatientID
		draft = ReconstructLabDraft(l)
		stamp = workflow.VersionStamp{Code: l.Code, Version: l.Version, SentAt: l.SentAt}
	case "doc":
		f, err := s.files.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		d, err := ReconstructDocumentDraft(f)
		if err != nil {
			return nil, err
		}
		patientID = f.PatientID
		draft = d
		stamp = workflow.VersionStamp{Code: f.Meta.Code, Version: f.Meta.Version, SentAt: f.SentAt}
	case "consult":
		return nil, ErrNotEditable
	default:
		return nil, fmt.Errorf("unknown entry source %q", prefix)
	}

	sess := s.workflows.OpenForRecord(patientID, draft, stamp)
	s.logger.Debug().
		Str("entry_id", entryID).
		Str("session_id", sess.ID.String()).
		Str("code", stamp.Code).
		Msg("record re-opened")
	return sess, nil
}
