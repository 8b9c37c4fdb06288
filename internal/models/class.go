package models

import (
	"time"

	"github.com/google/uuid"
)

// Class is a directory entry for a course, keyed by its code (e.g. CMPT120).
// Token issuance does not require the class to exist; the directory only
// feeds listings and report headers.
type Class struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
