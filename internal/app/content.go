package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// CommentItem pairs a comment with the requesting user's active vote.
type CommentItem struct {
	Comment  domain.Comment
	UserVote domain.Direction
}

// ResourceItem pairs a library entry with the requesting user's active vote.
type ResourceItem struct {
	Resource domain.Resource
	UserVote domain.Direction
}

// CastVote applies one vote cast for a user and returns the transition and
// the subject's tally after it.
func (s *Service) CastVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return domain.VoteResult{}, err
	}

	allowed, err := s.voteLimiter.Allow(ctx, userID)
	if err != nil {
		// Redis trouble must not take voting down with it.
		slog.Error("Vote rate limiter unavailable, letting cast through", "user_id", userID, "error", err)
	} else if !allowed {
		metrics.VoteFailuresTotal.WithLabelValues("rate_limited").Inc()
		return domain.VoteResult{}, domain.ErrVoteRateLimited
	}

	return s.engine.CastVote(ctx, kind, subjectID, userID, cast)
}

// AddComment attaches a comment to a meme.
func (s *Service) AddComment(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error) {
	if _, err := s.memes.GetByID(ctx, memeID); err != nil {
		return nil, err
	}
	return s.comments.Create(ctx, memeID, authorID, strings.TrimSpace(body))
}

// ListComments returns a meme's comments oldest first, with the caller's
// active votes layered on.
func (s *Service) ListComments(ctx context.Context, memeID, userID int64) ([]CommentItem, error) {
	if _, err := s.memes.GetByID(ctx, memeID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByMeme(ctx, memeID)
	if err != nil {
		return nil, err
	}

	items := make([]CommentItem, len(comments))
	for i, c := range comments {
		items[i] = CommentItem{Comment: c, UserVote: domain.DirectionNone}
	}
	if userID == 0 || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	votes, err := s.engine.UserVotes(ctx, domain.KindComment, ids, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if d, ok := votes[items[i].Comment.ID]; ok {
			items[i].UserVote = d
		}
	}
	return items, nil
}

// AddResource stores a library entry.
func (s *Service) AddResource(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error) {
	return s.resources.Create(ctx, submitterID, strings.TrimSpace(title), strings.TrimSpace(url), strings.TrimSpace(category), strings.TrimSpace(description))
}

// ListResources returns the library ordered by votes, optionally narrowed to
// one category, with the caller's active votes layered on.
func (s *Service) ListResources(ctx context.Context, category string, userID int64) ([]ResourceItem, error) {
	resources, err := s.resources.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}

	items := make([]ResourceItem, len(resources))
	for i, r := range resources {
		items[i] = ResourceItem{Resource: r, UserVote: domain.DirectionNone}
	}
	if userID == 0 || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	votes, err := s.engine.UserVotes(ctx, domain.KindResource, ids, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if d, ok := votes[items[i].Resource.ID]; ok {
			items[i].UserVote = d
		}
	}
	return items, nil
}

// Subscribe records a newsletter signup. Repeat signups succeed quietly.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	if err := s.subscribers.Subscribe(ctx, email); err != nil {
		return err
	}
	metrics.NewsletterSignups.Inc()
	return nil
}
