package workflow

import (
	"fmt"
	"strings"
	"time"
)

// LabPanel is one orderable test panel from the fixed catalog.
type LabPanel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// LabCatalog is the fixed set of panels a lab request can select from.
var LabCatalog = []LabPanel{
	{Key: "cbc", Label: "Complete blood count"},
	{Key: "fasting-glucose", Label: "Fasting glucose"},
	{Key: "hba1c", Label: "HbA1c"},
	{Key: "lipid-panel", Label: "Lipid panel"},
	{Key: "creatinine", Label: "Creatinine"},
	{Key: "electrolytes", Label: "Electrolytes"},
	{Key: "liver-panel", Label: "Liver panel"},
	{Key: "tsh", Label: "TSH"},
	{Key: "crp", Label: "CRP"},
	{Key: "urinalysis", Label: "Urinalysis"},
}

// PanelByKey looks up a catalog panel by key.
func PanelByKey(key string) (LabPanel, bool) {
	for _, p := range LabCatalog {
		if p.Key == key {
			return p, true
		}
	}
	return LabPanel{}, false
}

// MatchPanelLabel resolves a free-form test name back to a catalog panel,
// case-insensitively. The detail inspector uses this to rebuild a panel
// selection from a sent request.
func MatchPanelLabel(label string) (LabPanel, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	for _, p := range LabCatalog {
		if strings.ToLower(p.Label) == needle {
			return p, true
		}
	}
	return LabPanel{}, false
}

// DocTemplate selects the boilerplate a generated document starts from.
type DocTemplate string

const (
	TemplateReport      DocTemplate = "report"
	TemplateCertificate DocTemplate = "certificate"
	TemplateReferral    DocTemplate = "referral"
	TemplateSickLeave   DocTemplate = "sickleave"
)

func (t DocTemplate) Valid() bool {
	switch t {
	case TemplateReport, TemplateCertificate, TemplateReferral, TemplateSickLeave:
		return true
	}
	return false
}

// Title returns the human title used for the generated file name.
func (t DocTemplate) Title() string {
	switch t {
	case TemplateReport:
		return "Medical report"
	case TemplateCertificate:
		return "Medical certificate"
	case TemplateReferral:
		return "Referral letter"
	case TemplateSickLeave:
		return "Sick leave certificate"
	}
	return "Document"
}

// Boilerplate returns the template seed text for an empty document body.
func (t DocTemplate) Boilerplate(patientName string, now time.Time) string {
	date := now.Format("02/01/2006")
	switch t {
	case TemplateReport:
		return fmt.Sprintf("Medical report concerning %s.\n\nExamination of %s:\n\nFindings:\n\nConclusion:\n", patientName, date)
	case TemplateCertificate:
		return fmt.Sprintf("I, the undersigned, certify that I examined %s on %s and that their state of health is compatible with the activity described below.\n\nIssued on %s to serve for all legal intents and purposes.\n", patientName, date, date)
	case TemplateReferral:
		return fmt.Sprintf("Dear colleague,\n\nI am referring %s to you on %s for further assessment.\n\nThank you for your opinion.\n", patientName, date)
	case TemplateSickLeave:
		return fmt.Sprintf("I, the undersigned, certify that the state of health of %s requires a leave of absence starting %s.\n\nDuration:\n", patientName, date)
	}
	return ""
}
