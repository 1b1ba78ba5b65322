package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

type subscribeRequest struct {
	Email string `json:"email"`
}

// handleSubscribe records a newsletter signup. Signing the same address up
// twice is deliberately indistinguishable from the first time.
func (s *Server) handleSubscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	if err := s.app.Subscribe(c.Request().Context(), req.Email); err != nil {
		return apperrors.InternalError("failed to record signup", err)
	}

	return c.NoContent(http.StatusAccepted)
}
