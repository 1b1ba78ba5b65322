package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/domain"
	apperrors "github.com/DirtyReal/cfh-new/internal/errors"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

const (
	maxTitleLen = 200
	maxURLLen   = 2048
)

type memeView struct {
	ID        int64            `json:"id"`
	AuthorID  int64            `json:"author_id"`
	Title     string           `json:"title"`
	ImageURL  string           `json:"image_url"`
	Upvotes   int              `json:"upvotes"`
	Downvotes int              `json:"downvotes"`
	NetScore  int              `json:"net_score"`
	CreatedAt time.Time        `json:"created_at"`
	UserVote  domain.Direction `json:"user_vote"`
}

func newMemeView(m domain.Meme, userVote domain.Direction) memeView {
	return memeView{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Title:     m.Title,
		ImageURL:  m.ImageURL,
		Upvotes:   m.Upvotes,
		Downvotes: m.Downvotes,
		NetScore:  m.NetScore(),
		CreatedAt: m.CreatedAt,
		UserVote:  userVote,
	}
}

func (s *Server) handleListFeed(c echo.Context) error {
	policy := feed.ParsePolicy(c.QueryParam("sort"))

	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		return apperrors.ValidationError("offset must be a non-negative integer")
	}
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		return apperrors.ValidationError("limit must be a non-negative integer")
	}

	items, err := s.app.ListFeed(c.Request().Context(), policy, offset, limit, currentUserID(c))
	if err != nil {
		return apperrors.InternalError("failed to list feed", err)
	}

	views := make([]memeView, len(items))
	for i, item := range items {
		views[i] = newMemeView(item.Meme, item.UserVote)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"memes": views}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type createMemeRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func validateMeme(title, imageURL string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return validateHTTPURL(imageURL, "image_url")
}

func validateHTTPURL(raw, field string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(raw) > maxURLLen {
		return fmt.Errorf("%s exceeds %d characters", field, maxURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	return nil
}

func (s *Server) handleCreateMeme(c echo.Context) error {
	var req createMemeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateMeme(req.Title, req.ImageURL); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	meme, err := s.app.CreateMeme(c.Request().Context(), currentUserID(c), strings.TrimSpace(req.Title), req.ImageURL)
	if err != nil {
		return apperrors.InternalError("failed to create meme", err)
	}

	if err := c.JSON(http.StatusCreated, newMemeView(*meme, domain.DirectionNone)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetMeme(c echo.Context) error {
	memeID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	item, err := s.app.GetMeme(c.Request().Context(), memeID, currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrMemeNotFound) {
			return apperrors.NotFoundError("meme not found").WithField("meme_id", memeID)
		}
		return apperrors.InternalError("failed to load meme", err)
	}

	if err := c.JSON(http.StatusOK, newMemeView(item.Meme, item.UserVote)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type commentView struct {
	ID        int64            `json:"id"`
	MemeID    int64            `json:"meme_id"`
	AuthorID  int64            `json:"author_id"`
	Body      string           `json:"body"`
	Upvotes   int              `json:"upvotes"`
	CreatedAt time.Time        `json:"created_at"`
	UserVote  domain.Direction `json:"user_vote"`
}

func newCommentView(item app.CommentItem) commentView {
	return commentView{
		ID:        item.Comment.ID,
		MemeID:    item.Comment.MemeID,
		AuthorID:  item.Comment.AuthorID,
		Body:      item.Comment.Body,
		Upvotes:   item.Comment.Upvotes,
		CreatedAt: item.Comment.CreatedAt,
		UserVote:  item.UserVote,
	}
}

func (s *Server) handleListComments(c echo.Context) error {
	memeID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	items, err := s.app.ListComments(c.Request().Context(), memeID, currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrMemeNotFound) {
			return apperrors.NotFoundError("meme not found").WithField("meme_id", memeID)
		}
		return apperrors.InternalError("failed to list comments", err)
	}

	views := make([]commentView, len(items))
	for i, item := range items {
		views[i] = newCommentView(item)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"comments": views}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type addCommentRequest struct {
	Body string `json:"body"`
}

const maxCommentLen = 2000

func (s *Server) handleAddComment(c echo.Context) error {
	memeID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.ValidationError("comment body cannot be empty")
	}
	if len(req.Body) > maxCommentLen {
		return apperrors.ValidationError(fmt.Sprintf("comment body exceeds %d characters", maxCommentLen))
	}

	comment, err := s.app.AddComment(c.Request().Context(), memeID, currentUserID(c), req.Body)
	if err != nil {
		if errors.Is(err, domain.ErrMemeNotFound) {
			return apperrors.NotFoundError("meme not found").WithField("meme_id", memeID)
		}
		return apperrors.InternalError("failed to add comment", err)
	}

	view := newCommentView(app.CommentItem{Comment: *comment, UserVote: domain.DirectionNone})
	if err := c.JSON(http.StatusCreated, view); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// parseIDParam reads the :id route parameter as a positive integer.
func parseIDParam(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("id must be a positive integer").WithField("id", raw)
	}
	return id, nil
}

// parseQueryInt reads an optional non-negative integer query parameter.
func parseQueryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}
