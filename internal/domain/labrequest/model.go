package labrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediflow/mediflow/internal/domain/workflow"
)

// ResultValue is one analyte line of a lab request. Values start as the
// placeholder and get filled in when results arrive from the lab.
type ResultValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Placeholder marks an analyte whose result has not arrived yet.
const Placeholder = "—"

// Record is one sent lab request. TypeSummary is the compact display label
// derived from the selected panels at send time.
type Record struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Code      string    `json:"code"`
	Version   int       `json:"version"`

	TypeSummary string        `json:"type_summary"`
	Panels      []string      `json:"panels"`
	Custom      string        `json:"custom,omitempty"`
	Values      []ResultValue `json:"values"`

	Note   string              `json:"note,omitempty"`
	To     workflow.Recipients `json:"to"`
	SentAt string              `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
}

// Pending reports whether any analyte still carries the placeholder.
func (r *Record) Pending() bool {
	for _, v := range r.Values {
		if v.Value == Placeholder {
			return true
		}
	}
	return false
}
