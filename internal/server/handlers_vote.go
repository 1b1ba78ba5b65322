package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

type voteRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleVoteMeme(c echo.Context) error {
	return s.castVote(c, domain.KindMeme)
}

func (s *Server) handleVoteComment(c echo.Context) error {
	return s.castVote(c, domain.KindComment)
}

func (s *Server) handleVoteResource(c echo.Context) error {
	return s.castVote(c, domain.KindResource)
}

// castVote handles one vote endpoint. Casting the direction a user already
// holds retracts it, so the facade never retries these requests.
func (s *Server) castVote(c echo.Context, kind domain.SubjectKind) error {
	subjectID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		return apperrors.ValidationError(`direction must be "up" or "down"`).
			WithField("direction", req.Direction)
	}

	result, err := s.app.CastVote(c.Request().Context(), kind, subjectID, currentUserID(c), direction)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDirection):
			return apperrors.ValidationError(fmt.Sprintf("%ss only accept upvotes", kind)).
				WithField("direction", req.Direction)
		case errors.Is(err, domain.NotFoundFor(kind)):
			return apperrors.NotFoundError(fmt.Sprintf("%s not found", kind)).
				WithField("subject_id", subjectID)
		case errors.Is(err, domain.ErrUserNotFound):
			return apperrors.UnauthorizedError("account no longer exists")
		case errors.Is(err, domain.ErrVoteRateLimited):
			return apperrors.RateLimitedError("vote budget exhausted, slow down")
		default:
			return apperrors.InternalError("failed to apply vote", err).
				WithField("kind", string(kind)).
				WithField("subject_id", subjectID)
		}
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
