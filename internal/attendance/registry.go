package attendance

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/campuslink/attendance-backend/internal/models"
)

// Registry owns token issuance and redemption. It is safe for concurrent
// use as long as its Store is; all validation failures are request-scoped.
type Registry struct {
	store Store
	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the registry clock, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a token registry. A non-positive ttl falls back to
// ten minutes; a nil location falls back to UTC.
func NewRegistry(store Store, ttl time.Duration, loc *time.Location, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	r := &Registry{store: store, ttl: ttl, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue mints a fresh token for the class, valid for the registry TTL.
// Multiple outstanding tokens for the same class may coexist.
func (r *Registry) Issue(ctx context.Context, classID string) (*models.ClassToken, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return nil, invalidRequestf("classId is required")
	}
	tokenStr, err := generateToken()
	if err != nil {
		return nil, internalf("generate token: %v", err)
	}
	now := r.now()
	t := &models.ClassToken{
		Token:     tokenStr,
		ClassID:   classID,
		IssueDate: now.In(r.loc).Format(dateLayout),
		ExpiresAt: now.Add(r.ttl),
	}
	if err := r.store.SaveToken(ctx, t); err != nil {
		return nil, internalf("save token: %v", err)
	}
	return t, nil
}

// Redeem validates the token and appends one attendance record. The checks
// run in a fixed order and the first failure wins: token exists, token not
// expired, class matches, student not already marked today. The token stays
// valid for other students.
func (r *Registry) Redeem(ctx context.Context, studentID, classID, token string) (*models.AttendanceRecord, error) {
	studentID = strings.TrimSpace(studentID)
	classID = strings.TrimSpace(classID)
	token = strings.TrimSpace(token)
	if studentID == "" || classID == "" || token == "" {
		return nil, invalidRequestf("studentId, classId and token are required")
	}

	t, err := r.store.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, internalf("load token: %v", err)
	}
	now := r.now()
	if t.Expired(now) {
		return nil, ErrTokenExpired
	}
	if t.ClassID != classID {
		return nil, ErrClassMismatch
	}

	rec := &models.AttendanceRecord{
		StudentID: studentID,
		ClassID:   classID,
		Date:      t.IssueDate,
		Timestamp: now,
		Status:    models.StatusPresent,
	}
	if err := r.store.InsertAttendance(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyMarked) {
			return nil, ErrAlreadyMarked
		}
		return nil, internalf("insert attendance: %v", err)
	}
	return rec, nil
}

// List returns all attendance records for a class in insertion order.
func (r *Registry) List(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return nil, invalidRequestf("classId is required")
	}
	list, err := r.store.ListAttendance(ctx, classID)
	if err != nil {
		return nil, internalf("list attendance: %v", err)
	}
	return list, nil
}

// Sweep evicts tokens that expired before now and returns how many.
func (r *Registry) Sweep(ctx context.Context) (int64, error) {
	return r.store.DeleteExpiredTokens(ctx, r.now())
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
