package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// FeedItem pairs a ranked meme with the requesting user's active vote.
type FeedItem struct {
	Meme     domain.Meme
	UserVote domain.Direction
}

// ListFeed returns one ranked feed page. Pages are cached without user
// context; the caller's own votes are layered on after the cache.
// A userID of zero means an anonymous caller.
func (s *Service) ListFeed(ctx context.Context, policy feed.Policy, offset, limit int, userID int64) ([]FeedItem, error) {
	if offset < 0 {
		offset = 0
	}
	limit = feed.ClampLimit(limit)
	metrics.FeedRequestsTotal.WithLabelValues(string(policy)).Inc()

	memes, ok := s.feedCache.Get(ctx, policy, offset, limit)
	if !ok {
		key := fmt.Sprintf("%s:%d:%d", policy, offset, limit)
		page, err, _ := s.feedGroup.Do(key, func() (any, error) {
			all, err := s.memes.ListAll(ctx)
			if err != nil {
				return nil, err
			}
			ranked := feed.Rank(all, policy, offset, limit)
			s.feedCache.Set(ctx, policy, offset, limit, ranked)
			return ranked, nil
		})
		if err != nil {
			return nil, err
		}
		memes = page.([]domain.Meme)
	}

	return s.decorateMemes(ctx, memes, userID)
}

// CreateMeme stores a meme and drops cached feed pages, which no longer
// reflect the listing.
func (s *Service) CreateMeme(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error) {
	meme, err := s.memes.Create(ctx, authorID, title, imageURL)
	if err != nil {
		return nil, err
	}

	if err := s.feedCache.Invalidate(ctx); err != nil {
		slog.Error("Failed to invalidate feed cache", "error", err)
	}
	return meme, nil
}

// GetMeme returns one meme with the caller's active vote.
func (s *Service) GetMeme(ctx context.Context, memeID, userID int64) (*FeedItem, error) {
	meme, err := s.memes.GetByID(ctx, memeID)
	if err != nil {
		return nil, err
	}

	item := &FeedItem{Meme: *meme, UserVote: domain.DirectionNone}
	if userID != 0 {
		vote, err := s.engine.UserVote(ctx, domain.KindMeme, memeID, userID)
		if err != nil {
			return nil, err
		}
		item.UserVote = vote
	}
	return item, nil
}

func (s *Service) decorateMemes(ctx context.Context, memes []domain.Meme, userID int64) ([]FeedItem, error) {
	items := make([]FeedItem, len(memes))
	for i, m := range memes {
		items[i] = FeedItem{Meme: m, UserVote: domain.DirectionNone}
	}
	if userID == 0 || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(memes))
	for i, m := range memes {
		ids[i] = m.ID
	}
	votes, err := s.engine.UserVotes(ctx, domain.KindMeme, ids, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if d, ok := votes[items[i].Meme.ID]; ok {
			items[i].UserVote = d
		}
	}
	return items, nil
}
