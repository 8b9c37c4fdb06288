package models

import (
	"time"

	"github.com/google/uuid"
)

// Export statuses.
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// AttendanceExport tracks one requested CSV export of a class's attendance.
type AttendanceExport struct {
	ID          uuid.UUID  `json:"id"`
	ClassID     string     `json:"classId"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	Status      string     `json:"status"`
	S3Key       string     `json:"s3_key,omitempty"`
	RecordCount int        `json:"record_count"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
