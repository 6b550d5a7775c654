package timeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type fixture struct {
	svc       *Service
	visits    consultation.Source
	rx        prescription.Repository
	labs      labrequest.Repository
	files     document.Repository
	patientID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		visits:    consultation.NewMemorySource(),
		rx:        prescription.NewMemoryRepo(),
		labs:      labrequest.NewMemoryRepo(),
		files:     document.NewMemoryRepo(),
		patientID: uuid.New(),
	}
	f.svc = NewService(f.visits, f.rx, f.labs, f.files, zerolog.Nop())
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if err := f.visits.Add(ctx, &consultation.Consultation{
		PatientID: f.patientID, Date: "10/06/2026", Motif: "Annual checkup", Notes: "All good",
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.rx.Append(ctx, &prescription.Record{
		PatientID: f.patientID, Code: "ORD-104", Version: 1, Status: prescription.StatusActive,
		Medications: []string{"Metformine 850mg"}, To: workflow.Recipients{Patient: true},
		SentAt: "12/07/2026 09:15",
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.labs.Append(ctx, &labrequest.Record{
		PatientID: f.patientID, Code: "LAB-101", Version: 1,
		TypeSummary: "HbA1c", Panels: []string{"HbA1c"},
		Values: []labrequest.ResultValue{{Name: "HbA1c", Value: labrequest.Placeholder}},
		To:     workflow.Recipients{Lab: true}, SentAt: "20/07/2026 08:00",
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.files.Append(ctx, &document.File{
		PatientID: f.patientID, Kind: document.KindGenerated,
		Name: "Medical report — Marie Dupont (01/08/2026).txt", Mime: "text/plain",
		SentAt: "01/08/2026 14:30",
		Meta:   &document.GeneratedMeta{Template: workflow.TemplateReport, Title: "Medical report", Code: "DOC-101", Version: 1},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestBuild_AggregatesAllSourcesNewestFirst(t *testing.T) {
	f := newFixture()
	f.seed(t)

	entries, err := f.svc.Build(context.Background(), f.patientID, "", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	wantOrder := []EntryType{TypeDocument, TypeLabRequest, TypePrescription, TypeConsultation}
	for i, want := range wantOrder {
		if entries[i].Type != want {
			t.Errorf("position %d: expected %s, got %s", i, want, entries[i].Type)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].TS.After(entries[i-1].TS) {
			t.Errorf("entries out of order at %d", i)
		}
	}
}

func TestBuild_FilterByType(t *testing.T) {
	f := newFixture()
	f.seed(t)

	entries, err := f.svc.Build(context.Background(), f.patientID, TypePrescription, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != TypePrescription {
		t.Fatalf("expected only the prescription, got %+v", entries)
	}
	payload, ok := entries[0].Payload.(PrescriptionPayload)
	if !ok {
		t.Fatalf("expected PrescriptionPayload, got %T", entries[0].Payload)
	}
	if payload.Code != "ORD-104" || payload.Medications[0] != "Metformine 850mg" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBuild_SearchIsCaseInsensitive(t *testing.T) {
	f := newFixture()
	f.seed(t)

	entries, err := f.svc.Build(context.Background(), f.patientID, "", "METFORMINE")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != TypePrescription {
		t.Fatalf("expected the prescription to match, got %+v", entries)
	}
}

func TestBuild_MalformedDateFallsBackDeterministically(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.visits.Add(ctx, &consultation.Consultation{PatientID: f.patientID, Date: "not a date", Motif: "Walk-in"})

	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	first, err := f.svc.Build(ctx, f.patientID, "", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, _ := f.svc.Build(ctx, f.patientID, "", "")
	if !first[0].TS.Equal(second[0].TS) {
		t.Error("fallback timestamp must be deterministic for a fixed clock")
	}
	if !first[0].TS.Equal(fixed.Add(-96 * time.Hour)) {
		t.Errorf("unexpected fallback instant %v", first[0].TS)
	}
}

func TestBuild_EmptyHistory(t *testing.T) {
	f := newFixture()
	entries, err := f.svc.Build(context.Background(), f.patientID, "", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestFind_RoutesByPrefix(t *testing.T) {
	f := newFixture()
	f.seed(t)

	entries, _ := f.svc.Build(context.Background(), f.patientID, "", "")
	for _, e := range entries {
		got, err := f.svc.Find(context.Background(), e.ID)
		if err != nil {
			t.Fatalf("find %s: %v", e.ID, err)
		}
		if got.ID != e.ID || got.Type != e.Type {
			t.Errorf("find %s returned %s/%s", e.ID, got.ID, got.Type)
		}
	}

	if _, err := f.svc.Find(context.Background(), "bogus:"+uuid.NewString()); err == nil {
		t.Error("unknown prefix must fail")
	}
	if _, err := f.svc.Find(context.Background(), "rx:not-a-uuid"); err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Errorf("expected malformed id error, got %v", err)
	}
}
