package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation is one past visit. Visits come from the scheduling system and
// are read-only here except for the practitioner's notes.
type Consultation struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Date      string    `json:"date"`
	Motif     string    `json:"motif"`
	Notes     string    `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}
