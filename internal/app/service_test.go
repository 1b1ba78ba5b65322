package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

// --- Mock implementations ---

type mockUserRepo struct {
	createFn        func(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, email, passwordHash)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.User{ID: id, Username: "someone"}, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockMemeRepo struct {
	createFn  func(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Meme, error)
	listAllFn func(ctx context.Context) ([]domain.Meme, error)
}

func (m *mockMemeRepo) Create(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, title, imageURL)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockMemeRepo) GetByID(ctx context.Context, id int64) (*domain.Meme, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Meme{ID: id}, nil
}

func (m *mockMemeRepo) ListAll(ctx context.Context) ([]domain.Meme, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

type mockCommentRepo struct {
	createFn     func(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.Comment, error)
	listByMemeFn func(ctx context.Context, memeID int64) ([]domain.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, memeID, authorID, body)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCommentRepo) ListByMeme(ctx context.Context, memeID int64) ([]domain.Comment, error) {
	if m.listByMemeFn != nil {
		return m.listByMemeFn(ctx, memeID)
	}
	return nil, nil
}

type mockResourceRepo struct {
	createFn  func(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Resource, error)
	listFn    func(ctx context.Context, category string) ([]domain.Resource, error)
}

func (m *mockResourceRepo) Create(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error) {
	if m.createFn != nil {
		return m.createFn(ctx, submitterID, title, url, category, description)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockResourceRepo) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockResourceRepo) List(ctx context.Context, category string) ([]domain.Resource, error) {
	if m.listFn != nil {
		return m.listFn(ctx, category)
	}
	return nil, nil
}

type mockGameRepo struct {
	getSceneFn func(ctx context.Context, userID int64) (string, error)
	setSceneFn func(ctx context.Context, userID int64, sceneID string) error
}

func (m *mockGameRepo) GetScene(ctx context.Context, userID int64) (string, error) {
	if m.getSceneFn != nil {
		return m.getSceneFn(ctx, userID)
	}
	return "", nil
}

func (m *mockGameRepo) SetScene(ctx context.Context, userID int64, sceneID string) error {
	if m.setSceneFn != nil {
		return m.setSceneFn(ctx, userID, sceneID)
	}
	return nil
}

type mockSubscriberRepo struct {
	subscribeFn func(ctx context.Context, email string) error
}

func (m *mockSubscriberRepo) Subscribe(ctx context.Context, email string) error {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email)
	}
	return nil
}

type mockSessionRepo struct {
	createFn func(ctx context.Context, userID int64) (*domain.Session, error)
	getFn    func(ctx context.Context, token uuid.UUID) (*domain.Session, error)
	deleteFn func(ctx context.Context, token uuid.UUID) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID)
	}
	return &domain.Session{Token: uuid.New(), UserID: userID}, nil
}

func (m *mockSessionRepo) Get(ctx context.Context, token uuid.UUID) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionRepo) Delete(ctx context.Context, token uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

type mockEngine struct {
	castVoteFn  func(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error)
	userVoteFn  func(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64) (domain.Direction, error)
	userVotesFn func(ctx context.Context, kind domain.SubjectKind, ids []int64, userID int64) (map[int64]domain.Direction, error)
}

func (m *mockEngine) CastVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, kind, subjectID, userID, cast)
	}
	return domain.VoteResult{}, fmt.Errorf("not implemented")
}

func (m *mockEngine) UserVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64) (domain.Direction, error) {
	if m.userVoteFn != nil {
		return m.userVoteFn(ctx, kind, subjectID, userID)
	}
	return domain.DirectionNone, nil
}

func (m *mockEngine) UserVotes(ctx context.Context, kind domain.SubjectKind, ids []int64, userID int64) (map[int64]domain.Direction, error) {
	if m.userVotesFn != nil {
		return m.userVotesFn(ctx, kind, ids, userID)
	}
	return map[int64]domain.Direction{}, nil
}

type mockFeedCache struct {
	getFn        func(ctx context.Context, policy feed.Policy, offset, limit int) ([]domain.Meme, bool)
	setFn        func(ctx context.Context, policy feed.Policy, offset, limit int, memes []domain.Meme)
	invalidateFn func(ctx context.Context) error
}

func (m *mockFeedCache) Get(ctx context.Context, policy feed.Policy, offset, limit int) ([]domain.Meme, bool) {
	if m.getFn != nil {
		return m.getFn(ctx, policy, offset, limit)
	}
	return nil, false
}

func (m *mockFeedCache) Set(ctx context.Context, policy feed.Policy, offset, limit int, memes []domain.Meme) {
	if m.setFn != nil {
		m.setFn(ctx, policy, offset, limit, memes)
	}
}

func (m *mockFeedCache) Invalidate(ctx context.Context) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx)
	}
	return nil
}

type mockRateLimiter struct {
	allowFn func(ctx context.Context, userID int64) (bool, error)
}

func (m *mockRateLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, userID)
	}
	return true, nil
}

type testMocks struct {
	users       *mockUserRepo
	memes       *mockMemeRepo
	comments    *mockCommentRepo
	resources   *mockResourceRepo
	game        *mockGameRepo
	subscribers *mockSubscriberRepo
	sessions    *mockSessionRepo
	engine      *mockEngine
	cache       *mockFeedCache
	limiter     *mockRateLimiter
}

// newTestService creates a Service on zero-value mocks. Tests assign the
// function fields they care about.
func newTestService() (*Service, *testMocks) {
	m := &testMocks{
		users:       &mockUserRepo{},
		memes:       &mockMemeRepo{},
		comments:    &mockCommentRepo{},
		resources:   &mockResourceRepo{},
		game:        &mockGameRepo{},
		subscribers: &mockSubscriberRepo{},
		sessions:    &mockSessionRepo{},
		engine:      &mockEngine{},
		cache:       &mockFeedCache{},
		limiter:     &mockRateLimiter{},
	}

	repos := Repos{
		Users:       m.users,
		Memes:       m.memes,
		Comments:    m.comments,
		Resources:   m.resources,
		Game:        m.game,
		Subscribers: m.subscribers,
	}
	return NewService(repos, m.sessions, m.engine, m.cache, m.limiter), m
}

// --- Authenticate tests ---

func TestAuthenticate(t *testing.T) {
	token := uuid.New()
	svc, m := newTestService()

	m.sessions.getFn = func(_ context.Context, got uuid.UUID) (*domain.Session, error) {
		assert.Equal(t, token, got)
		return &domain.Session{Token: got, UserID: 42}, nil
	}
	m.users.getByIDFn = func(_ context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "ada"}, nil
	}

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "ada", user.Username)
}

func TestAuthenticate_SessionExpired(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Authenticate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAuthenticate_UserGone(t *testing.T) {
	svc, m := newTestService()

	m.sessions.getFn = func(_ context.Context, token uuid.UUID) (*domain.Session, error) {
		return &domain.Session{Token: token, UserID: 42}, nil
	}
	m.users.getByIDFn = func(_ context.Context, _ int64) (*domain.User, error) {
		return nil, domain.ErrUserNotFound
	}

	_, err := svc.Authenticate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
