package domain

import (
	"context"
	"time"
)

type Resource struct {
	ID          int64
	SubmitterID int64
	Title       string
	URL         string
	Category    string
	Description string
	// Votes is the single signed counter: an upvote adds one, a downvote
	// subtracts one.
	Votes     int
	CreatedAt time.Time
}

type ResourceRepository interface {
	Create(ctx context.Context, submitterID int64, title, url, category, description string) (*Resource, error)
	GetByID(ctx context.Context, id int64) (*Resource, error)
	// List returns resources ordered by votes descending. A non-empty
	// category restricts the listing to exact matches.
	List(ctx context.Context, category string) ([]Resource, error)
}
