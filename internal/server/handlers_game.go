package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

// sceneView exposes a scene without the story-graph internals: players see
// choice labels, not where they lead.
type sceneView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
	Ending  bool     `json:"ending"`
}

func newSceneView(scene domain.GameScene) sceneView {
	labels := make([]string, len(scene.Choices))
	for i, choice := range scene.Choices {
		labels[i] = choice.Label
	}
	return sceneView{
		ID:      scene.ID,
		Text:    scene.Text,
		Choices: labels,
		Ending:  scene.Ending(),
	}
}

func (s *Server) handleGameScene(c echo.Context) error {
	scene, err := s.app.CurrentScene(c.Request().Context(), currentUserID(c))
	if err != nil {
		return apperrors.InternalError("failed to load game progress", err)
	}

	if err := c.JSON(http.StatusOK, newSceneView(scene)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type gameChoiceRequest struct {
	Choice string `json:"choice"`
}

func (s *Server) handleGameChoice(c echo.Context) error {
	var req gameChoiceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Choice) == "" {
		return apperrors.ValidationError("choice cannot be empty")
	}

	scene, err := s.app.Choose(c.Request().Context(), currentUserID(c), req.Choice)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidChoice) {
			return apperrors.ValidationError("choice not available in this scene").
				WithField("choice", req.Choice)
		}
		return apperrors.InternalError("failed to advance game", err)
	}

	if err := c.JSON(http.StatusOK, newSceneView(scene)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
