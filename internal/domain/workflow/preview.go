package workflow

import (
	"fmt"
	"strings"
	"time"
)

// RenderPreview produces the plain-text rendition of a draft that the
// clipboard and print collaborators receive. It is a pure function of the
// draft, the patient identity, and the clock.
func RenderPreview(d Draft, patient Identity, now time.Time) string {
	var b strings.Builder
	date := now.Format("02/01/2006")

	switch d := d.(type) {
	case *PrescriptionDraft:
		fmt.Fprintf(&b, "PRESCRIPTION — %s\n", date)
		fmt.Fprintf(&b, "Patient: %s", patient.Name)
		if patient.Phone != "" {
			fmt.Fprintf(&b, " (%s)", patient.Phone)
		}
		b.WriteString("\n\n")
		for i, it := range d.CountedItems() {
			fmt.Fprintf(&b, "%d. %s", i+1, it.Medication)
			if it.Dosage != "" {
				fmt.Fprintf(&b, " — %s", it.Dosage)
			}
			if it.Duration != "" {
				fmt.Fprintf(&b, ", %s", it.Duration)
			}
			b.WriteString("\n")
			if it.Instructions != "" {
				fmt.Fprintf(&b, "   %s\n", it.Instructions)
			}
		}
		if d.Note != "" {
			fmt.Fprintf(&b, "\nNote: %s\n", d.Note)
		}

	case *LabDraft:
		fmt.Fprintf(&b, "LAB REQUEST — %s\n", date)
		fmt.Fprintf(&b, "Patient: %s\n\n", patient.Name)
		for _, label := range d.SelectedLabels() {
			fmt.Fprintf(&b, "- %s\n", label)
		}
		if strings.TrimSpace(d.Custom) != "" {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(d.Custom))
		}
		if d.Note != "" {
			fmt.Fprintf(&b, "\nNote: %s\n", d.Note)
		}

	case *DocumentDraft:
		fmt.Fprintf(&b, "%s — %s\n", strings.ToUpper(d.Template.Title()), date)
		fmt.Fprintf(&b, "Patient: %s\n\n", patient.Name)
		b.WriteString(d.Body)
		if !strings.HasSuffix(d.Body, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}
