package app

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

// FeedCache holds ranked feed pages. Implementations report any failure as a
// miss; the page is rebuilt from Postgres either way.
type FeedCache interface {
	Get(ctx context.Context, policy feed.Policy, offset, limit int) ([]domain.Meme, bool)
	Set(ctx context.Context, policy feed.Policy, offset, limit int, memes []domain.Meme)
	Invalidate(ctx context.Context) error
}

// VoteRateLimiter bounds how fast a single user may cast votes.
type VoteRateLimiter interface {
	Allow(ctx context.Context, userID int64) (bool, error)
}

// Repos bundles the Postgres-backed repositories the service consumes.
type Repos struct {
	Users       domain.UserRepository
	Memes       domain.MemeRepository
	Comments    domain.CommentRepository
	Resources   domain.ResourceRepository
	Game        domain.GameProgressRepository
	Subscribers domain.SubscriberRepository
}

// Service is the application layer, the one component that touches multiple
// domain components. It orchestrates all use cases.
type Service struct {
	users       domain.UserRepository
	memes       domain.MemeRepository
	comments    domain.CommentRepository
	resources   domain.ResourceRepository
	game        domain.GameProgressRepository
	subscribers domain.SubscriberRepository
	sessions    domain.SessionRepository
	engine      domain.VoteEngine
	feedCache   FeedCache
	voteLimiter VoteRateLimiter

	// feedGroup collapses concurrent fills of the same feed page after a
	// cache miss.
	feedGroup singleflight.Group
}

// NewService creates the application service.
func NewService(repos Repos, sessions domain.SessionRepository, engine domain.VoteEngine, feedCache FeedCache, voteLimiter VoteRateLimiter) *Service {
	return &Service{
		users:       repos.Users,
		memes:       repos.Memes,
		comments:    repos.Comments,
		resources:   repos.Resources,
		game:        repos.Game,
		subscribers: repos.Subscribers,
		sessions:    sessions,
		engine:      engine,
		feedCache:   feedCache,
		voteLimiter: voteLimiter,
	}
}

// Authenticate resolves a session token to its user. The lookup slides the
// session expiry forward.
func (s *Service) Authenticate(ctx context.Context, token uuid.UUID) (*domain.User, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, session.UserID)
}

// GetUser returns one user account.
func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
