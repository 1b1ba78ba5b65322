package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a user with derived defaults for testing.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, username string) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	user, err := repo.Create(context.Background(), username, username+"@example.com", "$2a$10$testhash")
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	return user
}

// CreateTestMeme creates a meme owned by authorID for testing.
func CreateTestMeme(t *testing.T, pool *pgxpool.Pool, authorID int64, title string) *domain.Meme {
	t.Helper()

	repo := NewMemeRepo(pool)
	meme, err := repo.Create(context.Background(), authorID, title, fmt.Sprintf("https://img.example.com/%s.png", title))
	require.NoError(t, err)
	require.NotZero(t, meme.ID)

	return meme
}

// CreateTestResource creates a resource in the given category for testing.
func CreateTestResource(t *testing.T, pool *pgxpool.Pool, submitterID int64, title, category string) *domain.Resource {
	t.Helper()

	repo := NewResourceRepo(pool)
	res, err := repo.Create(context.Background(), submitterID, title, "https://example.com/"+title, category, "")
	require.NoError(t, err)
	require.NotZero(t, res.ID)

	return res
}

// CreateTestComment creates a comment on memeID for testing.
func CreateTestComment(t *testing.T, pool *pgxpool.Pool, memeID, authorID int64, body string) *domain.Comment {
	t.Helper()

	repo := NewCommentRepo(pool)
	comment, err := repo.Create(context.Background(), memeID, authorID, body)
	require.NoError(t, err)
	require.NotZero(t, comment.ID)

	return comment
}
