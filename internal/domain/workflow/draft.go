package workflow

import (
	"strings"
	"time"
)

// Kind identifies which artifact a workflow produces.
type Kind string

const (
	KindPrescription Kind = "prescription"
	KindLabRequest   Kind = "lab_request"
	KindDocument     Kind = "document"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPrescription, KindLabRequest, KindDocument:
		return true
	}
	return false
}

// CodePrefix returns the lineage-code prefix used by the version ledger.
func (k Kind) CodePrefix() string {
	switch k {
	case KindPrescription:
		return "ORD-"
	case KindLabRequest:
		return "LAB-"
	case KindDocument:
		return "DOC-"
	}
	return "REF-"
}

// GateLabel names the confirmation required to leave the verify step. Lab
// requests are validated, everything else is signed.
func (k Kind) GateLabel() string {
	if k == KindLabRequest {
		return "validated"
	}
	return "signed"
}

// Recipients holds the per-kind delivery flags. Only the flags relevant to a
// kind are ever set: prescriptions use Patient/Pharmacy, lab requests use
// Patient/Lab, documents use Patient alone.
type Recipients struct {
	Patient  bool `json:"patient"`
	Pharmacy bool `json:"pharmacy"`
	Lab      bool `json:"lab"`
}

func (r Recipients) Any() bool {
	return r.Patient || r.Pharmacy || r.Lab
}

// PrescriptionItem is one medication line of a prescription draft. Only the
// medication field is required for the line to count as content.
type PrescriptionItem struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

// Draft is the mutable, not-yet-sent content of one workflow session.
type Draft interface {
	Kind() Kind
	// Empty reports whether the draft has no sendable content. An empty
	// draft blocks the send action, never earlier steps.
	Empty() bool
	SendTo() Recipients
}

type PrescriptionDraft struct {
	Items []PrescriptionItem `json:"items"`
	Note  string             `json:"note"`
	To    Recipients         `json:"to"`
}

func (d *PrescriptionDraft) Kind() Kind         { return KindPrescription }
func (d *PrescriptionDraft) SendTo() Recipients { return d.To }

func (d *PrescriptionDraft) Empty() bool {
	for _, it := range d.Items {
		if strings.TrimSpace(it.Medication) != "" {
			return false
		}
	}
	return true
}

// CountedItems returns the lines that carry a medication, in order.
func (d *PrescriptionDraft) CountedItems() []PrescriptionItem {
	var out []PrescriptionItem
	for _, it := range d.Items {
		if strings.TrimSpace(it.Medication) != "" {
			out = append(out, it)
		}
	}
	return out
}

type LabDraft struct {
	// Panels maps panel keys from the fixed catalog to their selected state.
	Panels map[string]bool `json:"panels"`
	Custom string          `json:"custom"`
	Note   string          `json:"note"`
	To     Recipients      `json:"to"`
}

func NewLabDraft() *LabDraft {
	return &LabDraft{Panels: make(map[string]bool)}
}

func (d *LabDraft) Kind() Kind         { return KindLabRequest }
func (d *LabDraft) SendTo() Recipients { return d.To }

func (d *LabDraft) Empty() bool {
	for _, on := range d.Panels {
		if on {
			return false
		}
	}
	return strings.TrimSpace(d.Custom) == ""
}

// Toggle flips a panel selection. Unknown keys are ignored.
func (d *LabDraft) Toggle(key string) {
	if _, ok := PanelByKey(key); !ok {
		return
	}
	if d.Panels == nil {
		d.Panels = make(map[string]bool)
	}
	d.Panels[key] = !d.Panels[key]
}

// SelectedLabels returns the labels of the selected panels in catalog order.
func (d *LabDraft) SelectedLabels() []string {
	var out []string
	for _, p := range LabCatalog {
		if d.Panels[p.Key] {
			out = append(out, p.Label)
		}
	}
	return out
}

type DocumentDraft struct {
	Template DocTemplate `json:"template"`
	Body     string      `json:"body"`
	To       Recipients  `json:"to"`
}

func (d *DocumentDraft) Kind() Kind         { return KindDocument }
func (d *DocumentDraft) SendTo() Recipients { return d.To }

// Empty is always false for documents: an empty body only blocks template
// seeding, never the send action.
func (d *DocumentDraft) Empty() bool { return false }

// SeedBody fills the body from the template boilerplate, but only when the
// body is currently empty.
func (d *DocumentDraft) SeedBody(patientName string, now time.Time) {
	if strings.TrimSpace(d.Body) != "" {
		return
	}
	d.Body = d.Template.Boilerplate(patientName, now)
}

// NewDraft returns the kind-specific empty draft.
func NewDraft(kind Kind) Draft {
	switch kind {
	case KindPrescription:
		return &PrescriptionDraft{}
	case KindLabRequest:
		return NewLabDraft()
	case KindDocument:
		return &DocumentDraft{Template: TemplateReport}
	}
	return nil
}
