package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/workflow"
	"github.com/mediflow/mediflow/internal/platform/blobstore"
)

type Service struct {
	repo   Repository
	blobs  blobstore.Store
	logger zerolog.Logger
}

func NewService(repo Repository, blobs blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		logger: logger.With().Str("component", "document").Logger(),
	}
}

// fileName builds the display name of a generated document. Versions past the
// first are marked so the cabinet shows the lineage at a glance.
func fileName(title string, version int, patientName, sentAt string) string {
	suffix := ""
	if version > 1 {
		suffix = fmt.Sprintf(" (v%d)", version)
	}
	date := sentAt
	if i := strings.IndexByte(sentAt, ' '); i > 0 {
		date = sentAt[:i]
	}
	return fmt.Sprintf("%s%s — %s (%s).txt", title, suffix, patientName, date)
}

// AppendDocument implements the workflow send seam: the rendered body goes to
// the blob store, the cabinet entry references it.
func (s *Service) AppendDocument(ctx context.Context, patientID uuid.UUID, patientName string, tpl workflow.DocTemplate, body string, to workflow.Recipients, stamp workflow.VersionStamp) (workflow.RecordRef, error) {
	name := fileName(tpl.Title(), stamp.Version, patientName, stamp.SentAt)

	blob, err := s.blobs.Put(ctx, name, "text/plain; charset=utf-8", strings.NewReader(body))
	if err != nil {
		return workflow.RecordRef{}, fmt.Errorf("store content: %w", err)
	}

	f := &File{
		PatientID: patientID,
		Kind:      KindGenerated,
		Name:      name,
		Mime:      blob.ContentType,
		Size:      blob.Size,
		BlobID:    blob.ID,
		To:        to,
		SentAt:    stamp.SentAt,
		Meta: &GeneratedMeta{
			Template: tpl,
			Title:    tpl.Title(),
			Body:     body,
			Code:     stamp.Code,
			Version:  stamp.Version,
		},
	}
	if err := s.repo.Append(ctx, f); err != nil {
		// keep the store consistent with the cabinet
		s.blobs.Release(ctx, blob.ID)
		return workflow.RecordRef{}, err
	}
	s.logger.Info().
		Str("file_id", f.ID.String()).
		Str("name", f.Name).
		Str("code", stamp.Code).
		Msg("document filed")
	return workflow.RecordRef{ID: f.ID, Code: stamp.Code, Version: stamp.Version}, nil
}

// Import files an uploaded document as-is. Imports carry no meta and cannot
// be re-opened in the editor.
func (s *Service) Import(ctx context.Context, patientID uuid.UUID, name, mime string, r io.Reader) (*File, error) {
	blob, err := s.blobs.Put(ctx, name, mime, r)
	if err != nil {
		return nil, err
	}
	f := &File{
		PatientID: patientID,
		Kind:      KindImport,
		Name:      name,
		Mime:      mime,
		Size:      blob.Size,
		BlobID:    blob.ID,
	}
	if err := s.repo.Append(ctx, f); err != nil {
		s.blobs.Release(ctx, blob.ID)
		return nil, err
	}
	s.logger.Info().
		Str("file_id", f.ID.String()).
		Str("name", f.Name).
		Int64("size", f.Size).
		Msg("file imported")
	return f, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*File, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// OpenContent streams a file's stored content.
func (s *Service) OpenContent(ctx context.Context, id uuid.UUID) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.blobs.Open(ctx, f.BlobID)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}
