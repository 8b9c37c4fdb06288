package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusPresent is the only attendance status written by token redemption.
const StatusPresent = "present"

// AttendanceRecord is proof that a student redeemed a class token on a day.
// At most one record exists per (StudentID, ClassID, Date).
type AttendanceRecord struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"studentId"`
	ClassID   string    `json:"classId"`
	Date      string    `json:"date"` // the token's issue date, YYYY-MM-DD
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}
