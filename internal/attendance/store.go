package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/attendance-backend/internal/models"
)

// Store persists class tokens and attendance records.
//
// InsertAttendance must be atomic with respect to the one-record-per
// (studentId, classId, date) rule: two concurrent inserts for the same
// triple must yield exactly one record and one ErrAlreadyMarked.
type Store interface {
	SaveToken(ctx context.Context, t *models.ClassToken) error
	GetToken(ctx context.Context, token string) (*models.ClassToken, error)
	// DeleteExpiredTokens removes tokens whose expiry is before the cutoff
	// and returns how many were removed.
	DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
	InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error
	// ListAttendance returns records for a class in insertion order.
	ListAttendance(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
}

// MemoryStore is the in-memory Store, used in tests and single-node
// deployments without Postgres; everything is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	tokens  map[string]*models.ClassToken
	records []models.AttendanceRecord
	marked  map[string]struct{} // studentID|classID|date
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*models.ClassToken),
		marked: make(map[string]struct{}),
	}
}

// SaveToken stores a token keyed by its string.
func (s *MemoryStore) SaveToken(_ context.Context, t *models.ClassToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

// GetToken returns the token or ErrTokenNotFound.
func (s *MemoryStore) GetToken(_ context.Context, token string) (*models.ClassToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

// DeleteExpiredTokens drops tokens that expired before the cutoff.
func (s *MemoryStore) DeleteExpiredTokens(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

// InsertAttendance appends a record, enforcing the per-day uniqueness rule
// under the store mutex so concurrent redeems cannot both pass the check.
func (s *MemoryStore) InsertAttendance(_ context.Context, rec *models.AttendanceRecord) error {
	key := rec.StudentID + "|" + rec.ClassID + "|" + rec.Date
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.marked[key]; dup {
		return ErrAlreadyMarked
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.marked[key] = struct{}{}
	s.records = append(s.records, *rec)
	return nil
}

// ListAttendance returns the class's records in insertion order.
func (s *MemoryStore) ListAttendance(_ context.Context, classID string) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AttendanceRecord
	for _, r := range s.records {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}
