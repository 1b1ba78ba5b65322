package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// commentColumns must match the Scan order in scanComment.
const commentColumns = `id, meme_id, author_id, body, upvotes, created_at`

// CommentRepo implements domain.CommentRepository backed by PostgreSQL.
type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.MemeID, &c.AuthorID, &c.Body, &c.Upvotes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) Create(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error) {
	comment, err := scanComment(r.pool.QueryRow(ctx, `
		INSERT INTO comments (meme_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING `+commentColumns+`
	`, memeID, authorID, body))
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepo) GetByID(ctx context.Context, commentID int64) (*domain.Comment, error) {
	comment, err := scanComment(r.pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, commentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

// ListByMeme returns a meme's comments oldest first.
func (r *CommentRepo) ListByMeme(ctx context.Context, memeID int64) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE meme_id = $1 ORDER BY id`, memeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.MemeID, &c.AuthorID, &c.Body, &c.Upvotes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}
