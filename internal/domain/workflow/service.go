package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Identity is the slice of patient data the workflow needs for boilerplate
// seeding, previews, and generated file names.
type Identity struct {
	Name  string
	Phone string
}

// IdentityProvider supplies patient identity, read-only.
type IdentityProvider interface {
	Identity(ctx context.Context, patientID uuid.UUID) (Identity, error)
}

// RecordRef points at the repository record a send produced.
type RecordRef struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Version int       `json:"version"`
}

// PrescriptionSink is the append seam into the prescription repository. Each
// call must succeed or fail atomically; the workflow never retries and never
// leaves a partial record behind.
type PrescriptionSink interface {
	AppendPrescription(ctx context.Context, patientID uuid.UUID, items []PrescriptionItem, note string, to Recipients, stamp VersionStamp) (RecordRef, error)
}

type LabSink interface {
	AppendLabRequest(ctx context.Context, patientID uuid.UUID, labels []string, custom, note string, to Recipients, stamp VersionStamp) (RecordRef, error)
}

type DocumentSink interface {
	AppendDocument(ctx context.Context, patientID uuid.UUID, patientName string, tpl DocTemplate, body string, to Recipients, stamp VersionStamp) (RecordRef, error)
}

type Sinks struct {
	Prescriptions PrescriptionSink
	LabRequests   LabSink
	Documents     DocumentSink
}

var ErrSessionNotFound = errors.New("workflow session not found")

// Session is one live workflow invocation. The draft is owned exclusively by
// the session and discarded when it closes.
type Session struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Kind      Kind      `json:"kind"`
	Machine   *Machine  `json:"-"`
	Draft     Draft     `json:"-"`
	OpenedAt  time.Time `json:"opened_at"`
}

// SendResult reports a successful send.
type SendResult struct {
	Stamp  VersionStamp `json:"stamp"`
	Record RecordRef    `json:"record"`
}

// Service owns the live workflow sessions and orchestrates the send action
// across the ledger and the artifact sinks.
type Service struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	sinks    Sinks
	ledger   *Ledger
	patients IdentityProvider
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(sinks Sinks, patients IdentityProvider, logger zerolog.Logger) *Service {
	return &Service{
		sessions: make(map[uuid.UUID]*Session),
		sinks:    sinks,
		ledger:   NewLedger(),
		patients: patients,
		logger:   logger.With().Str("component", "workflow").Logger(),
		now:      time.Now,
	}
}

// Open starts a fresh workflow session with the kind-specific empty draft.
// Document drafts take the requested template and get their body seeded from
// its boilerplate; tpl is ignored for the other kinds.
func (s *Service) Open(ctx context.Context, patientID uuid.UUID, kind Kind, tpl DocTemplate) (*Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown workflow kind %q", kind)
	}
	draft := NewDraft(kind)
	if doc, ok := draft.(*DocumentDraft); ok {
		if tpl.Valid() {
			doc.Template = tpl
		}
		ident, err := s.patients.Identity(ctx, patientID)
		if err != nil {
			return nil, fmt.Errorf("resolve patient: %w", err)
		}
		doc.SeedBody(ident.Name, s.now())
	}
	return s.open(patientID, kind, draft, nil), nil
}

// OpenForRecord starts a session over an already-sent record: the draft is
// the caller's reconstruction of that record and the machine shows the send
// confirmation for its stamp. Editing still requires an explicit Modify.
func (s *Service) OpenForRecord(patientID uuid.UUID, draft Draft, stamp VersionStamp) *Session {
	return s.open(patientID, draft.Kind(), draft, &stamp)
}

func (s *Service) open(patientID uuid.UUID, kind Kind, draft Draft, stamp *VersionStamp) *Session {
	sess := &Session{
		ID:        uuid.New(),
		PatientID: patientID,
		Kind:      kind,
		Machine:   NewMachine(kind),
		Draft:     draft,
		OpenedAt:  s.now(),
	}
	if stamp != nil {
		sess.Machine.Restore(*stamp)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug().
		Str("session_id", sess.ID.String()).
		Str("kind", string(kind)).
		Str("patient_id", patientID.String()).
		Msg("workflow opened")
	return sess
}

func (s *Service) Get(sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close discards the session and its draft. Closing mid-workflow loses the
// draft; nothing has been persisted before a successful send.
func (s *Service) Close(sessionID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// SetDraft replaces the session draft. The kinds must match.
func (s *Service) SetDraft(sessionID uuid.UUID, draft Draft) error {
	sess, err := s.Get(sessionID)
	if err != nil {
		return err
	}
	if draft.Kind() != sess.Kind {
		return fmt.Errorf("draft kind %q does not match session kind %q", draft.Kind(), sess.Kind)
	}
	sess.Draft = draft
	return nil
}

func (s *Service) Advance(sessionID uuid.UUID) (State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return State{}, err
	}
	if err := sess.Machine.Advance(); err != nil {
		return sess.Machine.State(), err
	}
	return sess.Machine.State(), nil
}

func (s *Service) SelectStep(sessionID uuid.UUID, step Step) (State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return State{}, err
	}
	if err := sess.Machine.SelectStep(step); err != nil {
		return sess.Machine.State(), err
	}
	return sess.Machine.State(), nil
}

func (s *Service) SetGate(sessionID uuid.UUID, v bool) (State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return State{}, err
	}
	sess.Machine.SetGate(v)
	return sess.Machine.State(), nil
}

func (s *Service) Modify(sessionID uuid.UUID) (State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return State{}, err
	}
	if err := sess.Machine.Modify(); err != nil {
		return sess.Machine.State(), err
	}
	return sess.Machine.State(), nil
}

// Send validates every precondition, computes the version stamp, appends the
// record through the kind's sink, and records the result on the machine. Any
// validation failure or sink error leaves the machine, the lineage, and the
// repositories exactly as they were.
func (s *Service) Send(ctx context.Context, sessionID uuid.UUID) (*SendResult, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	m := sess.Machine
	if err := m.CanSend(sess.Draft); err != nil {
		return nil, err
	}

	st := m.State()
	stamp := s.ledger.NextStamp(sess.Kind, st.SendStatus, st.EditingAfterSend)

	ref, err := s.append(ctx, sess, stamp)
	if err != nil {
		return nil, fmt.Errorf("append %s: %w", sess.Kind, err)
	}

	m.RecordSend(stamp)
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("code", stamp.Code).
		Int("version", stamp.Version).
		Str("kind", string(sess.Kind)).
		Msg("artifact sent")

	return &SendResult{Stamp: stamp, Record: ref}, nil
}

func (s *Service) append(ctx context.Context, sess *Session, stamp VersionStamp) (RecordRef, error) {
	switch d := sess.Draft.(type) {
	case *PrescriptionDraft:
		return s.sinks.Prescriptions.AppendPrescription(ctx, sess.PatientID, d.CountedItems(), d.Note, d.To, stamp)
	case *LabDraft:
		return s.sinks.LabRequests.AppendLabRequest(ctx, sess.PatientID, d.SelectedLabels(), d.Custom, d.Note, d.To, stamp)
	case *DocumentDraft:
		ident, err := s.patients.Identity(ctx, sess.PatientID)
		if err != nil {
			return RecordRef{}, fmt.Errorf("resolve patient: %w", err)
		}
		return s.sinks.Documents.AppendDocument(ctx, sess.PatientID, ident.Name, d.Template, d.Body, d.To, stamp)
	}
	return RecordRef{}, fmt.Errorf("unknown draft type %T", sess.Draft)
}

// Preview renders the printable text of the current draft for the clipboard
// and print collaborators.
func (s *Service) Preview(ctx context.Context, sessionID uuid.UUID) (string, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return "", err
	}
	ident, err := s.patients.Identity(ctx, sess.PatientID)
	if err != nil {
		return "", fmt.Errorf("resolve patient: %w", err)
	}
	return RenderPreview(sess.Draft, ident, s.now()), nil
}
