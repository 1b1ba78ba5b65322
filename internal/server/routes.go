package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(requestIDMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Observability endpoints, outside the CSRF perimeter.
	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	csrf := s.setupCSRFMiddleware()

	auth := s.echo.Group("/auth", csrf)
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout, s.requireAuth)

	api := s.echo.Group("/api", csrf)
	api.GET("/me", s.handleMe, s.requireAuth)

	api.GET("/memes", s.handleListFeed, s.optionalAuth)
	api.POST("/memes", s.handleCreateMeme, s.requireAuth)
	api.GET("/memes/:id", s.handleGetMeme, s.optionalAuth)
	api.POST("/memes/:id/vote", s.handleVoteMeme, s.requireAuth)

	api.GET("/memes/:id/comments", s.handleListComments, s.optionalAuth)
	api.POST("/memes/:id/comments", s.handleAddComment, s.requireAuth)
	api.POST("/comments/:id/vote", s.handleVoteComment, s.requireAuth)

	api.GET("/resources", s.handleListResources, s.optionalAuth)
	api.POST("/resources", s.handleAddResource, s.requireAuth)
	api.POST("/resources/:id/vote", s.handleVoteResource, s.requireAuth)

	api.POST("/newsletter", s.handleSubscribe)

	api.GET("/game", s.handleGameScene, s.requireAuth)
	api.POST("/game/choice", s.handleGameChoice, s.requireAuth)

	// WebSocket upgrade (no CSRF: the origin check guards the handshake).
	s.echo.GET("/ws/feed", s.handleFeedSocket)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

// setupCSRFMiddleware issues a double-submit token cookie and checks state
// changing requests for the matching header. The cookie is readable by the
// frontend, which echoes it back in X-CSRF-Token.
func (s *Server) setupCSRFMiddleware() echo.MiddlewareFunc {
	secure := s.config.AppEnv == "production"

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieMaxAge:   int(sessionMaxAge.Seconds()),
		CookieHTTPOnly: false,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteStrictMode,
	})
}
