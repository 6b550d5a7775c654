// Package inspector re-opens sent records: it shows the detail behind a
// timeline entry and, for workflow artifacts, rebuilds an editing session
// from the stored record.
package inspector

import (
	"errors"
	"strings"

	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

// ErrNotEditable marks entries that cannot be re-opened in a workflow:
// consultations and imported files.
var ErrNotEditable = errors.New("entry cannot be re-opened for editing")

// ReconstructPrescriptionDraft rebuilds the draft from a sent record. Records
// written by the current workflow carry structured items; legacy records have
// bare medication labels, which become lines with the label only.
func ReconstructPrescriptionDraft(r *prescription.Record) *workflow.PrescriptionDraft {
	items := r.Items
	if len(items) == 0 {
		items = make([]workflow.PrescriptionItem, 0, len(r.Medications))
		for _, m := range r.Medications {
			items = append(items, workflow.PrescriptionItem{Medication: m})
		}
	}
	return &workflow.PrescriptionDraft{
		Items: items,
		Note:  r.Note,
		To:    r.To,
	}
}

// ReconstructLabDraft rebuilds the panel selection from the stored labels.
// Labels that no longer match the catalog are folded into the custom field so
// nothing silently disappears.
func ReconstructLabDraft(r *labrequest.Record) *workflow.LabDraft {
	d := workflow.NewLabDraft()
	var unmatched []string
	for _, label := range r.Panels {
		if p, ok := workflow.MatchPanelLabel(label); ok {
			d.Panels[p.Key] = true
		} else {
			unmatched = append(unmatched, label)
		}
	}
	custom := r.Custom
	if len(unmatched) > 0 {
		if custom != "" {
			unmatched = append([]string{custom}, unmatched...)
		}
		custom = strings.Join(unmatched, ", ")
	}
	d.Custom = custom
	d.Note = r.Note
	d.To = r.To
	return d
}

// ReconstructDocumentDraft rebuilds the editor state of a generated document.
// Imports carry no meta and are not editable.
func ReconstructDocumentDraft(f *document.File) (*workflow.DocumentDraft, error) {
	if !f.Editable() {
		return nil, ErrNotEditable
	}
	return &workflow.DocumentDraft{
		Template: f.Meta.Template,
		Body:     f.Meta.Body,
		To:       f.To,
	}, nil
}
