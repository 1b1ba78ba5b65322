package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

const (
	maxUsernameLen = 30
	minUsernameLen = 3
	minPasswordLen = 8
	maxEmailLen    = 254
)

type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateRegistration(username, email, password string) error {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return fmt.Errorf("username must have at least %d characters", minUsernameLen)
	}
	if len(username) > maxUsernameLen {
		return fmt.Errorf("username exceeds %d characters", maxUsernameLen)
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return fmt.Errorf("username may only contain letters, digits, '-' and '_'")
		}
	}

	if err := validateEmail(email); err != nil {
		return err
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("password must have at least %d characters", minPasswordLen)
	}

	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	default:
		return false
	}
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if len(email) > maxEmailLen {
		return fmt.Errorf("email exceeds %d characters", maxEmailLen)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("email is not a valid address")
	}
	return nil
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := validateRegistration(req.Username, req.Email, req.Password); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	user, session, err := s.app.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return apperrors.ConflictError("username already taken").WithField("username", req.Username)
		}
		if errors.Is(err, domain.ErrEmailTaken) {
			return apperrors.ConflictError("email already registered")
		}
		return apperrors.InternalError("failed to register", err)
	}

	if err := s.writeSessionCookie(c, session.Token); err != nil {
		return apperrors.InternalError("failed to open session", err)
	}

	if err := c.JSON(http.StatusCreated, newUserView(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.ValidationError("username and password are required")
	}

	user, session, err := s.app.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// Deliberately the same answer for unknown username and wrong
			// password.
			return apperrors.UnauthorizedError("invalid credentials")
		}
		return apperrors.InternalError("failed to log in", err)
	}

	if err := s.writeSessionCookie(c, session.Token); err != nil {
		return apperrors.InternalError("failed to open session", err)
	}

	if err := c.JSON(http.StatusOK, newUserView(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	token, ok := s.sessionToken(c)
	if ok {
		if err := s.app.Logout(c.Request().Context(), token); err != nil {
			return apperrors.InternalError("failed to destroy session", err)
		}
	}

	if err := s.clearSessionCookie(c); err != nil {
		return apperrors.InternalError("failed to clear session cookie", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return apperrors.InternalError("no user in context", nil)
	}

	if err := c.JSON(http.StatusOK, newUserView(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
