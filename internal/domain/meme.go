package domain

import (
	"context"
	"time"
)

type Meme struct {
	ID        int64
	AuthorID  int64
	Title     string
	ImageURL  string
	Upvotes   int
	Downvotes int
	CreatedAt time.Time
}

// NetScore is upvotes minus downvotes.
func (m Meme) NetScore() int {
	return m.Upvotes - m.Downvotes
}

type MemeRepository interface {
	Create(ctx context.Context, authorID int64, title, imageURL string) (*Meme, error)
	GetByID(ctx context.Context, id int64) (*Meme, error)
	// ListAll returns every meme in creation order (oldest first). Ranking
	// and pagination happen in the feed ranker, after this read.
	ListAll(ctx context.Context) ([]Meme, error)
}
