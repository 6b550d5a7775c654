package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediflow/mediflow/internal/domain/workflow"
)

// Status tracks whether a record is the current version of its lineage.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Record is one sent prescription version. Records are append-only: sending a
// new version of the same lineage inactivates the previous one but never
// rewrites or deletes it.
type Record struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Code      string    `json:"code"`
	Version   int       `json:"version"`
	Status    Status    `json:"status"`

	// Medications holds the display labels. Items carries the structured
	// lines when the record was produced by the current workflow; legacy
	// records may have labels only.
	Medications []string                    `json:"medications"`
	Items       []workflow.PrescriptionItem `json:"items,omitempty"`

	Note   string              `json:"note,omitempty"`
	To     workflow.Recipients `json:"to"`
	SentAt string              `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
}
