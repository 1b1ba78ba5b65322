package domain

import (
	"context"
	"time"
)

type Comment struct {
	ID        int64
	MemeID    int64
	AuthorID  int64
	Body      string
	Upvotes   int
	CreatedAt time.Time
}

type CommentRepository interface {
	Create(ctx context.Context, memeID, authorID int64, body string) (*Comment, error)
	GetByID(ctx context.Context, id int64) (*Comment, error)
	// ListByMeme returns a meme's comments oldest first.
	ListByMeme(ctx context.Context, memeID int64) ([]Comment, error)
}
