package classes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/attendance-backend/internal/models"
)

// ErrNotFound is returned when no class matches the lookup.
var ErrNotFound = errors.New("class not found")

// Repository handles class directory persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a classes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a class keyed by its course code.
func (r *Repository) Create(ctx context.Context, cl *models.Class) error {
	const q = `INSERT INTO classes (id, code, title, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, cl.Code, cl.Title, cl.CreatedBy).Scan(&cl.ID, &cl.CreatedAt)
}

// GetByCode returns a class by course code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Class, error) {
	const q = `SELECT id, code, title, created_by, created_at FROM classes WHERE code = $1`
	var cl models.Class
	err := r.pool.QueryRow(ctx, q, code).Scan(&cl.ID, &cl.Code, &cl.Title, &cl.CreatedBy, &cl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// List returns all classes ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Class, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, title, created_by, created_at FROM classes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Class
	for rows.Next() {
		var cl models.Class
		if err := rows.Scan(&cl.ID, &cl.Code, &cl.Title, &cl.CreatedBy, &cl.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cl)
	}
	return list, rows.Err()
}
