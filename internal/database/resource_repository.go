package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// resourceColumns must match the Scan order in scanResource.
const resourceColumns = `id, submitter_id, title, url, category, description, votes, created_at`

// ResourceRepo implements domain.ResourceRepository backed by PostgreSQL.
type ResourceRepo struct {
	pool *pgxpool.Pool
}

func NewResourceRepo(pool *pgxpool.Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

func scanResource(row pgx.Row) (*domain.Resource, error) {
	var res domain.Resource
	err := row.Scan(&res.ID, &res.SubmitterID, &res.Title, &res.URL, &res.Category,
		&res.Description, &res.Votes, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepo) Create(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error) {
	res, err := scanResource(r.pool.QueryRow(ctx, `
		INSERT INTO resources (submitter_id, title, url, category, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+resourceColumns+`
	`, submitterID, title, url, category, description))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, resourceID int64) (*domain.Resource, error) {
	res, err := scanResource(r.pool.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, resourceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource by ID: %w", err)
	}
	return res, nil
}

// List returns resources ordered by votes, highest first, with creation
// order breaking ties. A non-empty category filters to exact matches.
func (r *ResourceRepo) List(ctx context.Context, category string) ([]domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources ORDER BY votes DESC, id`
	args := []any{}
	if category != "" {
		query = `SELECT ` + resourceColumns + ` FROM resources WHERE category = $1 ORDER BY votes DESC, id`
		args = append(args, category)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.SubmitterID, &res.Title, &res.URL, &res.Category,
			&res.Description, &res.Votes, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return resources, nil
}
