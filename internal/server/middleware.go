package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
	"github.com/DirtyReal/cfh-new/internal/logging"
)

// Context keys set by the auth middleware.
const (
	ctxKeyUserID = "userID"
	ctxKeyUser   = "user"
)

// requestIDMiddleware tags the request context so every log line of the
// request carries the same request_id.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := logging.WithRequestID(c.Request().Context(), logging.NewRequestID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// requireAuth resolves the session cookie to a user and rejects the request
// with 401 when it cannot. The resolved user lands in the echo context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := s.sessionToken(c)
		if !ok {
			return apperrors.UnauthorizedError("login required")
		}

		user, err := s.app.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrUserNotFound) {
				return apperrors.UnauthorizedError("session expired")
			}
			return apperrors.InternalError("failed to resolve session", err)
		}

		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyUser, user)
		return next(c)
	}
}

// optionalAuth resolves the session like requireAuth but lets the request
// through anonymously when there is no usable session. Listing endpoints use
// it to decorate responses with the caller's votes.
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := s.sessionToken(c)
		if !ok {
			return next(c)
		}

		user, err := s.app.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrUserNotFound) {
				return next(c)
			}
			return apperrors.InternalError("failed to resolve session", err)
		}

		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyUser, user)
		return next(c)
	}
}

// currentUserID returns the authenticated user's id, or 0 for anonymous
// requests.
func currentUserID(c echo.Context) int64 {
	if id, ok := c.Get(ctxKeyUserID).(int64); ok {
		return id
	}
	return 0
}

// currentUser returns the authenticated user. Handlers behind requireAuth
// may rely on the second return being true.
func currentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(ctxKeyUser).(*domain.User)
	return user, ok
}
