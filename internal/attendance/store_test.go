package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/attendance-backend/internal/models"
)

func TestMemoryStoreTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tok := &models.ClassToken{
		Token:     "t1",
		ClassID:   "CMPT120",
		IssueDate: "2025-03-10",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := s.SaveToken(ctx, tok); err != nil {
		t.Fatalf("SaveToken error: %v", err)
	}

	got, err := s.GetToken(ctx, "t1")
	if err != nil {
		t.Fatalf("GetToken error: %v", err)
	}
	if got.ClassID != "CMPT120" || got.IssueDate != "2025-03-10" {
		t.Fatalf("unexpected token: %+v", got)
	}

	if _, err := s.GetToken(ctx, "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	_ = s.SaveToken(ctx, &models.ClassToken{Token: "old", ClassID: "A", ExpiresAt: now.Add(-time.Minute)})
	_ = s.SaveToken(ctx, &models.ClassToken{Token: "new", ClassID: "A", ExpiresAt: now.Add(time.Minute)})

	n, err := s.DeleteExpiredTokens(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredTokens error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := s.GetToken(ctx, "new"); err != nil {
		t.Fatalf("fresh token should survive: %v", err)
	}
}

// Concurrent redeems for the same (student, class, date) must produce exactly
// one record.
func TestMemoryStoreConcurrentInsertAttendance(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &models.AttendanceRecord{
				StudentID: "S1",
				ClassID:   "CMPT120",
				Date:      "2025-03-10",
				Timestamp: time.Now(),
				Status:    models.StatusPresent,
			}
			errs <- s.InsertAttendance(ctx, rec)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyMarked):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != workers-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, ok, dup)
	}

	list, err := s.ListAttendance(ctx, "CMPT120")
	if err != nil {
		t.Fatalf("ListAttendance error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(list))
	}
}

func TestMemoryStoreInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := &models.AttendanceRecord{StudentID: "S1", ClassID: "A", Date: "2025-03-10", Status: models.StatusPresent}
	if err := s.InsertAttendance(ctx, rec); err != nil {
		t.Fatalf("InsertAttendance error: %v", err)
	}
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected generated id")
	}
}
