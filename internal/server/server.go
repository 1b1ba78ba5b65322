package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/config"
	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
	ws "github.com/DirtyReal/cfh-new/internal/websocket"
)

// Session cookie keys. The cookie carries only the opaque session token;
// the session itself lives in Redis.
const (
	sessionName     = "cfh-session"
	sessionKeyToken = "token"

	sessionMaxAge = 7 * 24 * time.Hour
)

// appService is the slice of the application layer the handlers call.
type appService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, *domain.Session, error)
	Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, error)
	Logout(ctx context.Context, token uuid.UUID) error
	Authenticate(ctx context.Context, token uuid.UUID) (*domain.User, error)

	ListFeed(ctx context.Context, policy feed.Policy, offset, limit int, userID int64) ([]app.FeedItem, error)
	CreateMeme(ctx context.Context, authorID int64, title, imageURL string) (*domain.Meme, error)
	GetMeme(ctx context.Context, memeID, userID int64) (*app.FeedItem, error)

	CastVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error)

	AddComment(ctx context.Context, memeID, authorID int64, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, memeID, userID int64) ([]app.CommentItem, error)

	AddResource(ctx context.Context, submitterID int64, title, url, category, description string) (*domain.Resource, error)
	ListResources(ctx context.Context, category string, userID int64) ([]app.ResourceItem, error)

	Subscribe(ctx context.Context, email string) error

	CurrentScene(ctx context.Context, userID int64) (domain.GameScene, error)
	Choose(ctx context.Context, userID int64, label string) (domain.GameScene, error)
}

// feedHub registers feed WebSocket connections for tally fan-out.
type feedHub interface {
	Register(conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	app          appService
	hub          feedHub
	limits       *ConnectionLimits
	upgrader     websocket.Upgrader
	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, hub feedHub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          hub,
		limits:       NewConnectionLimits(int64(cfg.WSMaxConnections), cfg.WSMaxPerIP, wsConnectionsPerSecond, wsConnectionBurst, clockwork.NewRealClock()),
		upgrader:     newFeedUpgrader(cfg),
		sessionStore: setupSessionStore(cfg),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}

func newFeedUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ws.NewCheckOrigin(cfg.PublicURL, cfg.AppEnv != "production"),
	}
}

// writeSessionCookie stores the session token in the browser cookie.
func (s *Server) writeSessionCookie(c echo.Context, token uuid.UUID) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// A cookie signed with a rotated secret decodes to an error plus a
		// fresh session, which is exactly what login wants.
		slog.Warn("Replacing undecodable session cookie", "error", err)
	}
	session.Values[sessionKeyToken] = token.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// clearSessionCookie expires the browser cookie.
func (s *Server) clearSessionCookie(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Clearing undecodable session cookie", "error", err)
	}
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to clear session cookie: %w", err)
	}
	return nil
}

// sessionToken extracts the session token from the request cookie. The
// second return is false when the request carries no usable token.
func (s *Server) sessionToken(c echo.Context) (uuid.UUID, bool) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil, false
	}

	raw, ok := session.Values[sessionKeyToken]
	if !ok {
		return uuid.Nil, false
	}
	tokenStr, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	token, err := uuid.Parse(tokenStr)
	if err != nil {
		return uuid.Nil, false
	}
	return token, true
}
