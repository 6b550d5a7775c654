package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/patient"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

func TestDirectoryIdentity(t *testing.T) {
	ctx := context.Background()
	dir := patient.NewMemoryDirectory()
	p := &patient.Patient{Name: "Marie Dupont", Phone: "+33 6 12 34 56 78"}
	if err := dir.Put(ctx, p); err != nil {
		t.Fatalf("put patient: %v", err)
	}

	adapter := directoryIdentity{dir: dir}
	id, err := adapter.Identity(ctx, p.ID)
	if err != nil {
		t.Fatalf("identity lookup: %v", err)
	}
	if id.Name != "Marie Dupont" {
		t.Errorf("expected name Marie Dupont, got %q", id.Name)
	}
	if id.Phone != p.Phone {
		t.Errorf("expected phone %q, got %q", p.Phone, id.Phone)
	}
}

func TestDirectoryIdentityUnknownPatient(t *testing.T) {
	adapter := directoryIdentity{dir: patient.NewMemoryDirectory()}
	if _, err := adapter.Identity(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown patient")
	}
}

func TestSeedDevData(t *testing.T) {
	ctx := context.Background()
	patients := patient.NewMemoryDirectory()
	visits := consultation.NewMemorySource()
	rx := prescription.NewMemoryRepo()

	seedDevData(ctx, zerolog.Nop(), patients, visits, rx)

	all, err := patients.List(ctx)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 seeded patients, got %d", len(all))
	}

	var jean *patient.Patient
	for _, p := range all {
		if p.Name == "Jean Martin" {
			jean = p
		}
	}
	if jean == nil {
		t.Fatal("expected Jean Martin in the seed data")
	}

	// legacy prescription: labels present, structured lines absent
	active, err := rx.Active(ctx, jean.ID)
	if err != nil {
		t.Fatalf("active prescription: %v", err)
	}
	if len(active.Medications) == 0 {
		t.Error("expected seeded medication labels")
	}
	if len(active.Items) != 0 {
		t.Errorf("legacy record should have no structured lines, got %d", len(active.Items))
	}

	records, err := visits.ListByPatient(ctx, jean.ID)
	if err != nil {
		t.Fatalf("list consultations: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 seeded consultation for Jean, got %d", len(records))
	}
}

func TestSeedDevData_CodesOutsideLedgerRange(t *testing.T) {
	ctx := context.Background()
	patients := patient.NewMemoryDirectory()
	visits := consultation.NewMemorySource()
	rx := prescription.NewMemoryRepo()

	seedDevData(ctx, zerolog.Nop(), patients, visits, rx)

	seeded := make(map[string]bool)
	all, err := patients.List(ctx)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	for _, p := range all {
		records, _, err := rx.ListByPatient(ctx, p.ID, 100, 0)
		if err != nil {
			t.Fatalf("list prescriptions: %v", err)
		}
		for _, r := range records {
			seeded[r.Code] = true
		}
	}
	if len(seeded) == 0 {
		t.Fatal("expected seeded prescription codes")
	}

	// a lineage minted at runtime must never share a code with the seed data
	ledger := workflow.NewLedger()
	for i := 0; i < 500; i++ {
		stamp := ledger.NextStamp(workflow.KindPrescription, nil, false)
		if seeded[stamp.Code] {
			t.Fatalf("minted code %s collides with a seeded lineage", stamp.Code)
		}
	}
}
