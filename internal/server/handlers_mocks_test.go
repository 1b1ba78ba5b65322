package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/config"
	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

// --- Mock implementations ---

type mockAppService struct {
	registerFn      func(ctx context.Context, username, email, password string) (*domain.User, *domain.Session, error)
	loginFn         func(ctx context.Context, username, password string) (*domain.User, *domain.Session, error)
	logoutFn        func(ctx context.Context, token uuid.UUID) error
	authenticateFn  func(ctx context.Context, token uuid.UUID) (*domain.User, error)
	listFeedFn      func(ctx context.Context, policy feed.Policy, offset, limit int, userID int64) ([]app.FeedItem, error)
	createMemeFn    func(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error)
	getMemeFn       func(ctx context.Context, memeID, userID int64) (*app.FeedItem, error)
	castVoteFn      func(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error)
	addCommentFn    func(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error)
	listCommentsFn  func(ctx context.Context, memeID, userID int64) ([]app.CommentItem, error)
	addResourceFn   func(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error)
	listResourcesFn func(ctx context.Context, category string, userID int64) ([]app.ResourceItem, error)
	subscribeFn     func(ctx context.Context, email string) error
	currentSceneFn  func(ctx context.Context, userID int64) (domain.GameScene, error)
	chooseFn        func(ctx context.Context, userID int64, label string) (domain.GameScene, error)
}

func (m *mockAppService) Register(ctx context.Context, username, email, password string) (*domain.User, *domain.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockAppService) Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockAppService) Logout(ctx context.Context, token uuid.UUID) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAppService) Authenticate(ctx context.Context, token uuid.UUID) (*domain.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockAppService) ListFeed(ctx context.Context, policy feed.Policy, offset, limit int, userID int64) ([]app.FeedItem, error) {
	if m.listFeedFn != nil {
		return m.listFeedFn(ctx, policy, offset, limit, userID)
	}
	return nil, nil
}

func (m *mockAppService) CreateMeme(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error) {
	if m.createMemeFn != nil {
		return m.createMemeFn(ctx, authorID, title, imageURL)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetMeme(ctx context.Context, memeID, userID int64) (*app.FeedItem, error) {
	if m.getMemeFn != nil {
		return m.getMemeFn(ctx, memeID, userID)
	}
	return nil, domain.ErrMemeNotFound
}

func (m *mockAppService) CastVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, kind, subjectID, userID, cast)
	}
	return domain.VoteResult{}, errors.New("not implemented")
}

func (m *mockAppService) AddComment(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, memeID, authorID, body)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListComments(ctx context.Context, memeID, userID int64) ([]app.CommentItem, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, memeID, userID)
	}
	return nil, nil
}

func (m *mockAppService) AddResource(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error) {
	if m.addResourceFn != nil {
		return m.addResourceFn(ctx, submitterID, title, url, category, description)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListResources(ctx context.Context, category string, userID int64) ([]app.ResourceItem, error) {
	if m.listResourcesFn != nil {
		return m.listResourcesFn(ctx, category, userID)
	}
	return nil, nil
}

func (m *mockAppService) Subscribe(ctx context.Context, email string) error {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email)
	}
	return nil
}

func (m *mockAppService) CurrentScene(ctx context.Context, userID int64) (domain.GameScene, error) {
	if m.currentSceneFn != nil {
		return m.currentSceneFn(ctx, userID)
	}
	return domain.GameScene{}, errors.New("not implemented")
}

func (m *mockAppService) Choose(ctx context.Context, userID int64, label string) (domain.GameScene, error) {
	if m.chooseFn != nil {
		return m.chooseFn(ctx, userID, label)
	}
	return domain.GameScene{}, errors.New("not implemented")
}

type mockFeedHub struct {
	registerFn   func(conn *websocket.Conn) error
	unregisterFn func(conn *websocket.Conn)
}

func (m *mockFeedHub) Register(conn *websocket.Conn) error {
	if m.registerFn != nil {
		return m.registerFn(conn)
	}
	return nil
}

func (m *mockFeedHub) Unregister(conn *websocket.Conn) {
	if m.unregisterFn != nil {
		m.unregisterFn(conn)
	}
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	cfg := &config.Config{
		AppEnv:           "test",
		PublicURL:        "http://localhost:8080",
		WSMaxConnections: 100,
		WSMaxPerIP:       100,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          &mockFeedHub{},
		limits:       NewConnectionLimits(100, 100, 100, 100, clockwork.NewRealClock()),
		upgrader:     newFeedUpgrader(cfg),
		sessionStore: store,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHub(hub feedHub) func(*Server) {
	return func(s *Server) {
		s.hub = hub
	}
}

func withConnectionLimits(limits *ConnectionLimits) func(*Server) {
	return func(s *Server) {
		s.limits = limits
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

func setSessionToken(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, token uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyToken] = token.String()
	require.NoError(t, session.Save(req, rec))
}

// requestWithSession builds a request that carries a valid session cookie
// for the given token. JSON bodies get the content type set.
func requestWithSession(t *testing.T, srv *Server, method, target string, body io.Reader, token uuid.UUID) *http.Request {
	t.Helper()

	seed := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	setSessionToken(t, srv, seed, rec, token)

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func testUser(id int64) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  fmt.Sprintf("user%d", id),
		Email:     fmt.Sprintf("user%d@example.com", id),
		CreatedAt: time.Now(),
	}
}

func testSession(userID int64) *domain.Session {
	return &domain.Session{
		Token:     uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// authedContext builds an echo context preloaded with an authenticated user,
// skipping the middleware round trip.
func authedContext(srv *Server, req *http.Request, rec *httptest.ResponseRecorder, user *domain.User) echo.Context {
	c := srv.echo.NewContext(req, rec)
	c.Set(ctxKeyUserID, user.ID)
	c.Set(ctxKeyUser, user)
	return c
}
