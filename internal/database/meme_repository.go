package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// memeColumns must match the Scan order in scanMeme.
const memeColumns = `id, author_id, title, image_url, upvotes, downvotes, created_at`

// MemeRepo implements domain.MemeRepository backed by PostgreSQL.
type MemeRepo struct {
	pool *pgxpool.Pool
}

func NewMemeRepo(pool *pgxpool.Pool) *MemeRepo {
	return &MemeRepo{pool: pool}
}

func scanMeme(row pgx.Row) (*domain.Meme, error) {
	var m domain.Meme
	err := row.Scan(&m.ID, &m.AuthorID, &m.Title, &m.ImageURL, &m.Upvotes, &m.Downvotes, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemeRepo) Create(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error) {
	meme, err := scanMeme(r.pool.QueryRow(ctx, `
		INSERT INTO memes (author_id, title, image_url)
		VALUES ($1, $2, $3)
		RETURNING `+memeColumns+`
	`, authorID, title, imageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create meme: %w", err)
	}
	return meme, nil
}

func (r *MemeRepo) GetByID(ctx context.Context, memeID int64) (*domain.Meme, error) {
	meme, err := scanMeme(r.pool.QueryRow(ctx,
		`SELECT `+memeColumns+` FROM memes WHERE id = $1`, memeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meme by ID: %w", err)
	}
	return meme, nil
}

// ListAll returns every meme in creation order. Ranking happens in memory,
// so the feed always starts from the same deterministic base order.
func (r *MemeRepo) ListAll(ctx context.Context) ([]domain.Meme, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memeColumns+` FROM memes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list memes: %w", err)
	}
	defer rows.Close()

	var memes []domain.Meme
	for rows.Next() {
		var m domain.Meme
		if err := rows.Scan(&m.ID, &m.AuthorID, &m.Title, &m.ImageURL, &m.Upvotes, &m.Downvotes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meme: %w", err)
		}
		memes = append(memes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memes: %w", err)
	}
	return memes, nil
}
