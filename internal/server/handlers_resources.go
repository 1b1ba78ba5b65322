package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
)

const (
	maxCategoryLen    = 50
	maxDescriptionLen = 2000
)

type resourceView struct {
	ID          int64            `json:"id"`
	SubmitterID int64            `json:"submitter_id"`
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Votes       int              `json:"votes"`
	CreatedAt   time.Time        `json:"created_at"`
	UserVote    domain.Direction `json:"user_vote"`
}

func newResourceView(item app.ResourceItem) resourceView {
	return resourceView{
		ID:          item.Resource.ID,
		SubmitterID: item.Resource.SubmitterID,
		Title:       item.Resource.Title,
		URL:         item.Resource.URL,
		Category:    item.Resource.Category,
		Description: item.Resource.Description,
		Votes:       item.Resource.Votes,
		CreatedAt:   item.Resource.CreatedAt,
		UserVote:    item.UserVote,
	}
}

func (s *Server) handleListResources(c echo.Context) error {
	category := c.QueryParam("category")

	items, err := s.app.ListResources(c.Request().Context(), category, currentUserID(c))
	if err != nil {
		return apperrors.InternalError("failed to list resources", err)
	}

	views := make([]resourceView, len(items))
	for i, item := range items {
		views[i] = newResourceView(item)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"resources": views}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type addResourceRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func validateResource(req addResourceRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if err := validateHTTPURL(req.URL, "url"); err != nil {
		return err
	}
	if strings.TrimSpace(req.Category) == "" {
		return fmt.Errorf("category cannot be empty")
	}
	if len(req.Category) > maxCategoryLen {
		return fmt.Errorf("category exceeds %d characters", maxCategoryLen)
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	return nil
}

func (s *Server) handleAddResource(c echo.Context) error {
	var req addResourceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateResource(req); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	resource, err := s.app.AddResource(c.Request().Context(), currentUserID(c),
		req.Title, req.URL, req.Category, req.Description)
	if err != nil {
		return apperrors.InternalError("failed to add resource", err)
	}

	view := newResourceView(app.ResourceItem{Resource: *resource, UserVote: domain.DirectionNone})
	if err := c.JSON(http.StatusCreated, view); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
