package inspector

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/timeline"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type noopSinks struct{}

func (noopSinks) AppendPrescription(context.Context, uuid.UUID, []workflow.PrescriptionItem, string, workflow.Recipients, workflow.VersionStamp) (workflow.RecordRef, error) {
	return workflow.RecordRef{}, nil
}
func (noopSinks) AppendLabRequest(context.Context, uuid.UUID, []string, string, string, workflow.Recipients, workflow.VersionStamp) (workflow.RecordRef, error) {
	return workflow.RecordRef{}, nil
}
func (noopSinks) AppendDocument(context.Context, uuid.UUID, string, workflow.DocTemplate, string, workflow.Recipients, workflow.VersionStamp) (workflow.RecordRef, error) {
	return workflow.RecordRef{}, nil
}

type noopPatients struct{}

func (noopPatients) Identity(context.Context, uuid.UUID) (workflow.Identity, error) {
	return workflow.Identity{Name: "Marie Dupont"}, nil
}

type inspectorFixture struct {
	svc       *Service
	visits    consultation.Source
	rx        prescription.Repository
	files     document.Repository
	patientID uuid.UUID
}

func newInspectorFixture() *inspectorFixture {
	visits := consultation.NewMemorySource()
	rx := prescription.NewMemoryRepo()
	labs := labrequest.NewMemoryRepo()
	files := document.NewMemoryRepo()

	tl := timeline.NewService(visits, rx, labs, files, zerolog.Nop())
	sinks := noopSinks{}
	wf := workflow.NewService(workflow.Sinks{Prescriptions: sinks, LabRequests: sinks, Documents: sinks}, noopPatients{}, zerolog.Nop())

	return &inspectorFixture{
		svc:       NewService(tl, wf, rx, labs, files, zerolog.Nop()),
		visits:    visits,
		rx:        rx,
		files:     files,
		patientID: uuid.New(),
	}
}

func TestOpenEdit_PrescriptionShowsSendConfirmation(t *testing.T) {
	f := newInspectorFixture()
	ctx := context.Background()

	rec := &prescription.Record{
		PatientID: f.patientID, Code: "ORD-104", Version: 2, Status: prescription.StatusActive,
		Medications: []string{"Metformine 850mg"},
		Items:       []workflow.PrescriptionItem{{Medication: "Metformine 850mg", Dosage: "2x/day"}},
		To:          workflow.Recipients{Patient: true}, SentAt: "12/07/2026 09:15",
	}
	f.rx.Append(ctx, rec)

	sess, err := f.svc.OpenEdit(ctx, "rx:"+rec.ID.String())
	if err != nil {
		t.Fatalf("open edit: %v", err)
	}

	st := sess.Machine.State()
	if st.Step != workflow.StepSend || st.SendStatus == nil {
		t.Fatalf("session must open on the send confirmation, got %+v", st)
	}
	if st.SendStatus.Code != "ORD-104" || st.SendStatus.Version != 2 {
		t.Errorf("unexpected stamp %+v", st.SendStatus)
	}
	if st.EditingAfterSend {
		t.Error("opening must not flip the editing flag; that takes an explicit modify")
	}
	if err := sess.Machine.Modify(); err != nil {
		t.Fatalf("modify after open: %v", err)
	}
}

func TestOpenEdit_ConsultationRefused(t *testing.T) {
	f := newInspectorFixture()
	ctx := context.Background()

	v := &consultation.Consultation{PatientID: f.patientID, Date: "10/06/2026", Motif: "Checkup"}
	f.visits.Add(ctx, v)

	_, err := f.svc.OpenEdit(ctx, "consult:"+v.ID.String())
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestOpenEdit_ImportRefused(t *testing.T) {
	f := newInspectorFixture()
	ctx := context.Background()

	imp := &document.File{PatientID: f.patientID, Kind: document.KindImport, Name: "scan.pdf"}
	f.files.Append(ctx, imp)

	_, err := f.svc.OpenEdit(ctx, "doc:"+imp.ID.String())
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestOpenEdit_MissingRecord(t *testing.T) {
	f := newInspectorFixture()
	_, err := f.svc.OpenEdit(context.Background(), "rx:"+uuid.NewString())
	if !errors.Is(err, prescription.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInspect_DelegatesToTimeline(t *testing.T) {
	f := newInspectorFixture()
	ctx := context.Background()

	v := &consultation.Consultation{PatientID: f.patientID, Date: "10/06/2026", Motif: "Checkup", Notes: "stable"}
	f.visits.Add(ctx, v)

	entry, err := f.svc.Inspect(ctx, "consult:"+v.ID.String())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	payload, ok := entry.Payload.(timeline.ConsultPayload)
	if !ok {
		t.Fatalf("expected ConsultPayload, got %T", entry.Payload)
	}
	if payload.Motif != "Checkup" || payload.Notes != "stable" {
		t.Errorf("unexpected payload %+v", payload)
	}
}
