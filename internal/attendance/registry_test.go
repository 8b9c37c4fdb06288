package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(start time.Time) (*Registry, *time.Time) {
	now := start
	reg := NewRegistry(NewMemoryStore(), 10*time.Minute, time.UTC, WithClock(func() time.Time { return now }))
	return reg, &now
}

func TestIssueRequiresClassID(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	_, err := reg.Issue(context.Background(), "  ")
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, KindInvalidRequest, kerr.Kind)
}

func TestIssueSetsExpiryAndDate(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	reg, _ := newTestRegistry(start)

	tok, err := reg.Issue(context.Background(), "CMPT120")
	require.NoError(t, err)
	assert.Equal(t, "CMPT120", tok.ClassID)
	assert.Equal(t, "2025-03-10", tok.IssueDate)
	assert.Equal(t, start.Add(10*time.Minute), tok.ExpiresAt)
	assert.NotEmpty(t, tok.Token)
}

func TestIssueTwiceProducesIndependentTokens(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	t1, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	t2, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	assert.NotEqual(t, t1.Token, t2.Token)

	// both redeemable, by different students
	_, err = reg.Redeem(ctx, "S1", "CMPT120", t1.Token)
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S2", "CMPT120", t2.Token)
	require.NoError(t, err)
}

func TestRedeemValidation(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	for _, tc := range []struct{ student, class, token string }{
		{"", "CMPT120", "tok"},
		{"S1", "", "tok"},
		{"S1", "CMPT120", ""},
	} {
		_, err := reg.Redeem(ctx, tc.student, tc.class, tc.token)
		var kerr *Error
		require.ErrorAs(t, err, &kerr)
		assert.Equal(t, KindInvalidRequest, kerr.Kind)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	_, err := reg.Redeem(context.Background(), "S1", "CMPT120", "no-such-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedeemExpiryBoundary(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	reg, now := newTestRegistry(start)
	ctx := context.Background()

	tok, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)

	// one second before expiry: redeemable
	*now = start.Add(10*time.Minute - time.Second)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", tok.Token)
	require.NoError(t, err)

	// one second past expiry: rejected, even for a new student
	*now = start.Add(10*time.Minute + time.Second)
	_, err = reg.Redeem(ctx, "S2", "CMPT120", tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRedeemClassMismatch(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	tok, err := reg.Issue(ctx, "A")
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S1", "B", tok.Token)
	assert.ErrorIs(t, err, ErrClassMismatch)
}

func TestRedeemExpiredWinsOverMismatch(t *testing.T) {
	start := time.Now()
	reg, now := newTestRegistry(start)
	ctx := context.Background()

	tok, err := reg.Issue(ctx, "A")
	require.NoError(t, err)
	*now = start.Add(11 * time.Minute)

	// expiry is checked before the class comparison
	_, err = reg.Redeem(ctx, "S1", "B", tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRedeemDuplicateSameDay(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	t1, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", t1.Token)
	require.NoError(t, err)

	// same token again
	_, err = reg.Redeem(ctx, "S1", "CMPT120", t1.Token)
	assert.ErrorIs(t, err, ErrAlreadyMarked)

	// a second valid token for the same class does not help
	t2, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", t2.Token)
	assert.ErrorIs(t, err, ErrAlreadyMarked)
}

func TestRedeemNextDayAllowed(t *testing.T) {
	start := time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC)
	reg, now := newTestRegistry(start)
	ctx := context.Background()

	t1, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", t1.Token)
	require.NoError(t, err)

	// a token issued after midnight carries the next calendar date
	*now = start.Add(10 * time.Minute)
	t2, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	require.Equal(t, "2025-03-11", t2.IssueDate)

	rec, err := reg.Redeem(ctx, "S1", "CMPT120", t2.Token)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", rec.Date)
}

func TestRedeemSharedByManyStudents(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	tok, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)

	students := []string{"S1", "S2", "S3", "S4", "S5"}
	for _, s := range students {
		rec, err := reg.Redeem(ctx, s, "CMPT120", tok.Token)
		require.NoError(t, err, "student %s", s)
		assert.Equal(t, s, rec.StudentID)
		assert.Equal(t, "present", rec.Status)
	}

	list, err := reg.List(ctx, "CMPT120")
	require.NoError(t, err)
	require.Len(t, list, len(students))
	for i, s := range students {
		assert.Equal(t, s, list[i].StudentID) // insertion order
	}
}

func TestListRequiresClassID(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	_, err := reg.List(context.Background(), "")
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, KindInvalidRequest, kerr.Kind)
}

func TestListUnknownClassEmpty(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	list, err := reg.List(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	start := time.Now()
	reg, now := newTestRegistry(start)
	ctx := context.Background()

	old, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)

	*now = start.Add(15 * time.Minute)
	fresh, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)

	n, err := reg.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// evicted tokens are indistinguishable from never-issued ones
	_, err = reg.Redeem(ctx, "S1", "CMPT120", old.Token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", fresh.Token)
	require.NoError(t, err)
}

func TestRegistryUsableAfterFailures(t *testing.T) {
	reg, _ := newTestRegistry(time.Now())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := reg.Redeem(ctx, "S1", "CMPT120", "bogus")
		require.Error(t, err)
	}
	tok, err := reg.Issue(ctx, "CMPT120")
	require.NoError(t, err)
	_, err = reg.Redeem(ctx, "S1", "CMPT120", tok.Token)
	assert.NoError(t, err)
}

func TestErrorKindMatching(t *testing.T) {
	err := invalidRequestf("classId is required")
	assert.True(t, errors.Is(err, &Error{Kind: KindInvalidRequest}))
	assert.False(t, errors.Is(err, ErrTokenExpired))
}
