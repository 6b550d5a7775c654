package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediflow/mediflow/internal/domain/workflow"
)

// FileKind separates workflow-generated documents from raw imports.
type FileKind string

const (
	KindGenerated FileKind = "document"
	KindImport    FileKind = "import"
)

// GeneratedMeta carries the editable substance of a generated document. An
// imported file has no meta and cannot be re-opened in the editor.
type GeneratedMeta struct {
	Template workflow.DocTemplate `json:"template"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Code     string               `json:"code"`
	Version  int                  `json:"version"`
}

// File is one entry of a patient's file cabinet. The content itself lives in
// the blob store under BlobID.
type File struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Kind      FileKind  `json:"kind"`
	Name      string    `json:"name"`
	Mime      string    `json:"mime"`
	Size      int64     `json:"size"`
	BlobID    string    `json:"blob_id"`

	To     workflow.Recipients `json:"to,omitempty"`
	SentAt string              `json:"sent_at,omitempty"`
	Meta   *GeneratedMeta      `json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Editable reports whether the file can be re-opened in the document editor.
func (f *File) Editable() bool {
	return f.Kind == KindGenerated && f.Meta != nil
}
