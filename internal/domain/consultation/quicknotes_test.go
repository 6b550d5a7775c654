package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func seedVisit(t *testing.T, src Source) *Consultation {
	t.Helper()
	c := &Consultation{PatientID: uuid.New(), Date: "12/07/2026", Motif: "Follow-up"}
	if err := src.Add(context.Background(), c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func TestQuickNotes_SavesAfterIdle(t *testing.T) {
	src := NewMemorySource()
	visit := seedVisit(t, src)
	q := NewQuickNotes(src, 20*time.Millisecond, zerolog.Nop())

	q.Update(visit.ID, "patient doing well")

	deadline := time.Now().Add(time.Second)
	for q.Pending(visit.ID) {
		if time.Now().After(deadline) {
			t.Fatal("autosave never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, _ := src.GetByID(context.Background(), visit.ID)
	if got.Notes != "patient doing well" {
		t.Errorf("expected autosaved notes, got %q", got.Notes)
	}
}

func TestQuickNotes_LatestTextWins(t *testing.T) {
	src := NewMemorySource()
	visit := seedVisit(t, src)
	q := NewQuickNotes(src, 50*time.Millisecond, zerolog.Nop())

	q.Update(visit.ID, "first draft")
	q.Update(visit.ID, "second draft")

	if err := q.Flush(visit.ID); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, _ := src.GetByID(context.Background(), visit.ID)
	if got.Notes != "second draft" {
		t.Errorf("expected the latest text, got %q", got.Notes)
	}
}

func TestQuickNotes_FlushIsImmediateAndIdempotent(t *testing.T) {
	src := NewMemorySource()
	visit := seedVisit(t, src)
	q := NewQuickNotes(src, time.Hour, zerolog.Nop())

	q.Update(visit.ID, "closing the chart")
	if err := q.Flush(visit.ID); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if q.Pending(visit.ID) {
		t.Error("nothing may stay pending after a flush")
	}
	got, _ := src.GetByID(context.Background(), visit.ID)
	if got.Notes != "closing the chart" {
		t.Errorf("flush must write through, got %q", got.Notes)
	}

	// flushing again with nothing pending is a no-op
	if err := q.Flush(visit.ID); err != nil {
		t.Fatalf("second flush: %v", err)
	}
}

func TestQuickNotes_FlushAllDrains(t *testing.T) {
	src := NewMemorySource()
	a := seedVisit(t, src)
	b := seedVisit(t, src)
	q := NewQuickNotes(src, time.Hour, zerolog.Nop())

	q.Update(a.ID, "note a")
	q.Update(b.ID, "note b")
	q.FlushAll()

	gotA, _ := src.GetByID(context.Background(), a.ID)
	gotB, _ := src.GetByID(context.Background(), b.ID)
	if gotA.Notes != "note a" || gotB.Notes != "note b" {
		t.Errorf("expected both notes saved, got %q and %q", gotA.Notes, gotB.Notes)
	}
}
