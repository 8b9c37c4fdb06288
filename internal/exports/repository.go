package exports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/attendance-backend/internal/models"
)

// ErrNotFound is returned when no export matches the lookup.
var ErrNotFound = errors.New("export not found")

// Repository handles attendance export persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an exports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending export request.
func (r *Repository) Create(ctx context.Context, e *models.AttendanceExport) error {
	const q = `INSERT INTO attendance_exports (id, class_id, requested_by, status)
		VALUES (gen_random_uuid(), $1, $2, 'pending')
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, e.ClassID, e.RequestedBy).Scan(&e.ID, &e.Status, &e.CreatedAt)
}

// GetByID returns an export by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceExport, error) {
	const q = `SELECT id, class_id, requested_by, status, COALESCE(s3_key,''), record_count, created_at, completed_at
		FROM attendance_exports WHERE id = $1`
	var e models.AttendanceExport
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&e.ID, &e.ClassID, &e.RequestedBy, &e.Status, &e.S3Key, &e.RecordCount, &e.CreatedAt, &e.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByClass returns a class's exports, newest first.
func (r *Repository) ListByClass(ctx context.Context, classID string) ([]models.AttendanceExport, error) {
	const q = `SELECT id, class_id, requested_by, status, COALESCE(s3_key,''), record_count, created_at, completed_at
		FROM attendance_exports WHERE class_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AttendanceExport
	for rows.Next() {
		var e models.AttendanceExport
		if err := rows.Scan(&e.ID, &e.ClassID, &e.RequestedBy, &e.Status, &e.S3Key, &e.RecordCount, &e.CreatedAt, &e.CompletedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// MarkCompleted stores the S3 key and record count for a finished export.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, recordCount int) error {
	const q = `UPDATE attendance_exports
		SET status = 'completed', s3_key = $2, record_count = $3, completed_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, s3Key, recordCount)
	return err
}

// MarkFailed flags an export that exhausted its retries.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE attendance_exports SET status = 'failed', completed_at = NOW() WHERE id = $1`, id)
	return err
}
