package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/attendance-backend/internal/models"
)

const dateLayout = "2006-01-02"

// Repository is the Postgres-backed Store. The unique index on
// (student_id, class_id, class_date) makes redeem's duplicate check and
// insert a single conditional statement.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveToken inserts an issued class token.
func (r *Repository) SaveToken(ctx context.Context, t *models.ClassToken) error {
	const q = `INSERT INTO class_tokens (token, class_id, issue_date, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, t.Token, t.ClassID, t.IssueDate, t.ExpiresAt).
		Scan(&t.CreatedAt)
}

// GetToken returns a token by its string, or ErrTokenNotFound.
func (r *Repository) GetToken(ctx context.Context, token string) (*models.ClassToken, error) {
	const q = `SELECT token, class_id, issue_date, expires_at, created_at FROM class_tokens WHERE token = $1`
	var t models.ClassToken
	var issueDate time.Time
	err := r.pool.QueryRow(ctx, q, token).Scan(&t.Token, &t.ClassID, &issueDate, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	t.IssueDate = issueDate.Format(dateLayout)
	return &t, nil
}

// DeleteExpiredTokens removes tokens that expired before the cutoff.
func (r *Repository) DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM class_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertAttendance performs the conditional insert: zero affected rows means
// the (student, class, date) triple is already marked.
func (r *Repository) InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	const q = `INSERT INTO attendance_records (id, student_id, class_id, class_date, marked_at, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (student_id, class_id, class_date) DO NOTHING
		RETURNING id`
	err := r.pool.QueryRow(ctx, q, rec.StudentID, rec.ClassID, rec.Date, rec.Timestamp, rec.Status).
		Scan(&rec.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyMarked
	}
	return err
}

// ListAttendance returns a class's records in insertion order.
func (r *Repository) ListAttendance(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	const q = `SELECT id, student_id, class_id, class_date, marked_at, status
		FROM attendance_records WHERE class_id = $1 ORDER BY seq`
	rows, err := r.pool.Query(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		var date time.Time
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &date, &rec.Timestamp, &rec.Status); err != nil {
			return nil, err
		}
		rec.Date = date.Format(dateLayout)
		list = append(list, rec)
	}
	return list, rows.Err()
}
