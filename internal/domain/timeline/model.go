package timeline

import (
	"time"

	"github.com/mediflow/mediflow/internal/domain/labrequest"
)

// EntryType tags a timeline entry with its source module.
type EntryType string

const (
	TypeConsultation EntryType = "consultation"
	TypePrescription EntryType = "prescription"
	TypeLabRequest   EntryType = "lab_request"
	TypeDocument     EntryType = "document"
)

func (t EntryType) Valid() bool {
	switch t {
	case TypeConsultation, TypePrescription, TypeLabRequest, TypeDocument:
		return true
	}
	return false
}

// Payload is the closed set of per-source detail attachments. Each entry
// carries exactly the payload of its type, so consumers switch on a sealed
// union instead of poking at loose maps.
type Payload interface {
	isPayload()
}

type ConsultPayload struct {
	Motif string `json:"motif"`
	Notes string `json:"notes,omitempty"`
}

type PrescriptionPayload struct {
	Code        string   `json:"code"`
	Version     int      `json:"version"`
	Status      string   `json:"status"`
	Medications []string `json:"medications"`
}

type LabPayload struct {
	Code    string                   `json:"code"`
	Version int                      `json:"version"`
	Summary string                   `json:"summary"`
	Values  []labrequest.ResultValue `json:"values"`
	Pending bool                     `json:"pending"`
}

type DocumentPayload struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Mime     string `json:"mime"`
	Editable bool   `json:"editable"`
}

func (ConsultPayload) isPayload()      {}
func (PrescriptionPayload) isPayload() {}
func (LabPayload) isPayload()          {}
func (DocumentPayload) isPayload()     {}

// Entry is one row of the aggregated patient history. ID is prefixed with the
// source so the detail inspector can route it back.
type Entry struct {
	ID    string    `json:"id"`
	Type  EntryType `json:"type"`
	At    string    `json:"at"`
	TS    time.Time `json:"-"`
	Title string    `json:"title"`
	Desc  string    `json:"desc,omitempty"`

	Payload Payload `json:"payload"`
}
