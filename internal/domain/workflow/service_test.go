package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock sinks and identity provider --

type sentPrescription struct {
	PatientID uuid.UUID
	Items     []PrescriptionItem
	Note      string
	To        Recipients
	Stamp     VersionStamp
}

type mockSinks struct {
	prescriptions []sentPrescription
	labLabels     [][]string
	labCustom     []string
	documents     []VersionStamp
	failNext      error
}

func (m *mockSinks) AppendPrescription(_ context.Context, patientID uuid.UUID, items []PrescriptionItem, note string, to Recipients, stamp VersionStamp) (RecordRef, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return RecordRef{}, err
	}
	m.prescriptions = append(m.prescriptions, sentPrescription{patientID, items, note, to, stamp})
	return RecordRef{ID: uuid.New(), Code: stamp.Code, Version: stamp.Version}, nil
}

func (m *mockSinks) AppendLabRequest(_ context.Context, _ uuid.UUID, labels []string, custom, _ string, _ Recipients, stamp VersionStamp) (RecordRef, error) {
	m.labLabels = append(m.labLabels, labels)
	m.labCustom = append(m.labCustom, custom)
	return RecordRef{ID: uuid.New(), Code: stamp.Code, Version: stamp.Version}, nil
}

func (m *mockSinks) AppendDocument(_ context.Context, _ uuid.UUID, _ string, _ DocTemplate, _ string, _ Recipients, stamp VersionStamp) (RecordRef, error) {
	m.documents = append(m.documents, stamp)
	return RecordRef{ID: uuid.New(), Code: stamp.Code, Version: stamp.Version}, nil
}

type mockPatients struct{}

func (mockPatients) Identity(_ context.Context, _ uuid.UUID) (Identity, error) {
	return Identity{Name: "Marie Dupont", Phone: "+33 6 12 34 56 78"}, nil
}

func newTestService() (*Service, *mockSinks) {
	sinks := &mockSinks{}
	svc := NewService(Sinks{
		Prescriptions: sinks,
		LabRequests:   sinks,
		Documents:     sinks,
	}, mockPatients{}, zerolog.Nop())
	return svc, sinks
}

func openRx(t *testing.T, svc *Service) *Session {
	t.Helper()
	sess, err := svc.Open(context.Background(), uuid.New(), KindPrescription, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return sess
}

// -- Tests --

func TestService_SendPrescription_FullPass(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg"}},
		To:    Recipients{Patient: true},
	}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)

	result, err := svc.Send(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.Stamp.Version != 1 {
		t.Errorf("first send must be version 1, got %d", result.Stamp.Version)
	}
	if !strings.HasPrefix(result.Stamp.Code, "ORD-") {
		t.Errorf("unexpected code %q", result.Stamp.Code)
	}
	if len(sinks.prescriptions) != 1 {
		t.Fatalf("expected 1 appended record, got %d", len(sinks.prescriptions))
	}

	st := sess.Machine.State()
	if st.SendStatus == nil || st.SendStatus.Code != result.Stamp.Code {
		t.Errorf("send status not recorded: %+v", st)
	}
}

func TestService_ModifyThenResendBumpsVersion(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg"}},
		To:    Recipients{Patient: true},
	}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)
	first, err := svc.Send(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}

	if _, err := svc.Modify(sess.ID); err != nil {
		t.Fatalf("modify: %v", err)
	}
	// change the dosage, then sign and send again
	sess.Draft.(*PrescriptionDraft).Items[0].Dosage = "2x/day"
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)
	second, err := svc.Send(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}

	if second.Stamp.Code != first.Stamp.Code {
		t.Errorf("lineage code must be stable: %s != %s", second.Stamp.Code, first.Stamp.Code)
	}
	if second.Stamp.Version != 2 {
		t.Errorf("expected version 2, got %d", second.Stamp.Version)
	}
	if len(sinks.prescriptions) != 2 {
		t.Errorf("expected 2 appended records, got %d", len(sinks.prescriptions))
	}
}

func TestService_RepeatSendWithoutModifyRejected(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg"}},
		To:    Recipients{Patient: true},
	}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)
	first, err := svc.Send(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}

	// nothing modified in between: the gate is still set from the first pass
	_, err = svc.Send(context.Background(), sess.ID)
	if !errors.Is(err, ErrAlreadySent) {
		t.Fatalf("expected already_sent on repeat send, got %v", err)
	}
	if len(sinks.prescriptions) != 1 {
		t.Fatalf("repeat send must not append, got %d records", len(sinks.prescriptions))
	}

	st := sess.Machine.State()
	if st.SendStatus == nil || st.SendStatus.Code != first.Stamp.Code || st.SendStatus.Version != 1 {
		t.Errorf("send status must keep the first stamp, got %+v", st.SendStatus)
	}
}

func TestService_OpenForRecordRepeatSendRejected(t *testing.T) {
	svc, sinks := newTestService()
	draft := &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg"}},
		To:    Recipients{Patient: true},
	}
	stamp := VersionStamp{Code: "ORD-104", Version: 2, SentAt: "20/07/2026 09:15"}
	sess := svc.OpenForRecord(uuid.New(), draft, stamp)

	// the restored session sits at the send step with the gate set; re-filing
	// the untouched record must still be refused
	_, err := svc.Send(context.Background(), sess.ID)
	if !errors.Is(err, ErrAlreadySent) {
		t.Fatalf("expected already_sent, got %v", err)
	}
	if len(sinks.prescriptions) != 0 {
		t.Errorf("expected no appended record, got %d", len(sinks.prescriptions))
	}
}

func TestService_SendWithoutGateAppendsNothing(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg"}},
		To:    Recipients{Patient: true},
	}
	svc.Advance(sess.ID)

	_, err := svc.Send(context.Background(), sess.ID)
	if !errors.Is(err, ErrNotSigned) {
		t.Fatalf("expected not_signed, got %v", err)
	}
	if len(sinks.prescriptions) != 0 {
		t.Error("no record may be appended on a gate violation")
	}
	if sess.Machine.State().SendStatus != nil {
		t.Error("send status must stay nil on a gate violation")
	}
}

func TestService_SendEmptyLabDraftRejected(t *testing.T) {
	svc, sinks := newTestService()
	sess, err := svc.Open(context.Background(), uuid.New(), KindLabRequest, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sess.Draft.(*LabDraft).To = Recipients{Lab: true}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)

	_, err = svc.Send(context.Background(), sess.ID)
	if !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("expected empty_draft, got %v", err)
	}
	if len(sinks.labLabels) != 0 {
		t.Error("repository length must be unchanged")
	}
}

func TestService_SendNoRecipientRejected(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{Items: []PrescriptionItem{{Medication: "X"}}}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)

	_, err := svc.Send(context.Background(), sess.ID)
	if !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected no_recipient, got %v", err)
	}
	if len(sinks.prescriptions) != 0 {
		t.Error("no record may be appended without a recipient")
	}
}

func TestService_SinkFailureLeavesMachineUnchanged(t *testing.T) {
	svc, sinks := newTestService()
	sess := openRx(t, svc)

	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "X"}},
		To:    Recipients{Patient: true},
	}
	svc.Advance(sess.ID)
	svc.SetGate(sess.ID, true)
	svc.Advance(sess.ID)
	sinks.failNext = fmt.Errorf("backend unavailable")

	if _, err := svc.Send(context.Background(), sess.ID); err == nil {
		t.Fatal("expected sink error to propagate")
	}
	if sess.Machine.State().SendStatus != nil {
		t.Error("send status must not be recorded when the sink fails")
	}
}

func TestService_OpenDocumentSeedsBoilerplate(t *testing.T) {
	svc, _ := newTestService()
	sess, err := svc.Open(context.Background(), uuid.New(), KindDocument, TemplateCertificate)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	doc := sess.Draft.(*DocumentDraft)
	if doc.Template != TemplateCertificate {
		t.Errorf("expected certificate template, got %s", doc.Template)
	}
	if !strings.Contains(doc.Body, "Marie Dupont") {
		t.Error("seeded body must contain the patient name")
	}
}

func TestService_OpenForRecordRequiresExplicitModify(t *testing.T) {
	svc, _ := newTestService()
	draft := &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg", Dosage: "1x/day"}},
		To:    Recipients{Patient: true},
	}
	stamp := VersionStamp{Code: "ORD-123", Version: 1, SentAt: "01/09/2026 08:00"}

	sess := svc.OpenForRecord(uuid.New(), draft, stamp)
	st := sess.Machine.State()
	if st.EditingAfterSend {
		t.Error("opening the inspector alone must not flip the editing flag")
	}
	if st.SendStatus == nil || st.SendStatus.Code != "ORD-123" {
		t.Errorf("expected restored stamp, got %+v", st.SendStatus)
	}
}

func TestService_CloseDiscardsSession(t *testing.T) {
	svc, _ := newTestService()
	sess := openRx(t, svc)
	svc.Close(sess.ID)
	if _, err := svc.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}
}

func TestService_SetDraftKindMismatch(t *testing.T) {
	svc, _ := newTestService()
	sess := openRx(t, svc)
	if err := svc.SetDraft(sess.ID, NewLabDraft()); err == nil {
		t.Error("expected kind mismatch error")
	}
}

func TestService_Preview(t *testing.T) {
	svc, _ := newTestService()
	sess := openRx(t, svc)
	sess.Draft = &PrescriptionDraft{
		Items: []PrescriptionItem{{Medication: "Metformine 850mg", Dosage: "1x/day"}},
		Note:  "with meals",
		To:    Recipients{Patient: true},
	}

	text, err := svc.Preview(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, want := range []string{"Marie Dupont", "Metformine 850mg", "1x/day", "with meals"} {
		if !strings.Contains(text, want) {
			t.Errorf("preview missing %q:\n%s", want, text)
		}
	}
}
