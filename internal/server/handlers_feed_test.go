package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

func testMeme(id int64) domain.Meme {
	return domain.Meme{
		ID:        id,
		AuthorID:  1,
		Title:     "title",
		ImageURL:  "https://img.example.com/a.png",
		Upvotes:   3,
		Downvotes: 1,
		CreatedAt: time.Now(),
	}
}

// --- handleListFeed tests ---

func TestHandleListFeed_Success(t *testing.T) {
	var gotPolicy feed.Policy
	var gotOffset, gotLimit int
	var gotUserID int64
	srv := newTestServer(t, &mockAppService{
		listFeedFn: func(_ context.Context, policy feed.Policy, offset, limit int, userID int64) ([]app.FeedItem, error) {
			gotPolicy, gotOffset, gotLimit, gotUserID = policy, offset, limit, userID
			return []app.FeedItem{
				{Meme: testMeme(1), UserVote: domain.DirectionUp},
				{Meme: testMeme(2), UserVote: domain.DirectionNone},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes?sort=top&offset=5&limit=10", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := srv.handleListFeed(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, feed.PolicyTop, gotPolicy)
	assert.Equal(t, 5, gotOffset)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, int64(0), gotUserID, "no session means anonymous listing")

	var got struct {
		Memes []memeView `json:"memes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Memes, 2)
	assert.Equal(t, int64(1), got.Memes[0].ID)
	assert.Equal(t, domain.DirectionUp, got.Memes[0].UserVote)
	assert.Equal(t, 2, got.Memes[0].NetScore)
}

func TestHandleListFeed_DefaultsToHot(t *testing.T) {
	var gotPolicy feed.Policy
	srv := newTestServer(t, &mockAppService{
		listFeedFn: func(_ context.Context, policy feed.Policy, _, _ int, _ int64) ([]app.FeedItem, error) {
			gotPolicy = policy
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := srv.handleListFeed(c)
	require.NoError(t, err)
	assert.Equal(t, feed.PolicyHot, gotPolicy)
}

func TestHandleListFeed_EmptyFeed(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listFeedFn: func(_ context.Context, _ feed.Policy, _, _ int, _ int64) ([]app.FeedItem, error) {
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := srv.handleListFeed(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memes":[]`, "empty feed is an empty array, not null")
}

func TestHandleListFeed_BadPagination(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"negative offset", "/api/memes?offset=-1"},
		{"non-numeric offset", "/api/memes?offset=abc"},
		{"negative limit", "/api/memes?limit=-5"},
		{"non-numeric limit", "/api/memes?limit=ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := srv.echo.NewContext(req, rec)

			_ = callHandler(srv.handleListFeed, c)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// --- handleCreateMeme tests ---

func TestHandleCreateMeme_Success(t *testing.T) {
	user := testUser(4)
	var gotAuthorID int64
	var gotTitle, gotURL string
	srv := newTestServer(t, &mockAppService{
		createMemeFn: func(_ context.Context, authorID int64, title, imageURL string) (*domain.Meme, error) {
			gotAuthorID, gotTitle, gotURL = authorID, title, imageURL
			m := testMeme(42)
			m.AuthorID = authorID
			m.Title = title
			m.ImageURL = imageURL
			m.Upvotes, m.Downvotes = 0, 0
			return &m, nil
		},
	})

	body := `{"title":"fresh content","image_url":"https://img.example.com/fresh.png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/memes", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, user)

	err := srv.handleCreateMeme(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, user.ID, gotAuthorID)
	assert.Equal(t, "fresh content", gotTitle)
	assert.Equal(t, "https://img.example.com/fresh.png", gotURL)

	var got memeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, domain.DirectionNone, got.UserVote, "a fresh meme carries no vote from its author")
}

func TestHandleCreateMeme_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"  ","image_url":"https://img.example.com/a.png"}`},
		{"title too long", `{"title":"` + strings.Repeat("x", maxTitleLen+1) + `","image_url":"https://img.example.com/a.png"}`},
		{"empty image url", `{"title":"ok","image_url":""}`},
		{"non-http scheme", `{"title":"ok","image_url":"ftp://img.example.com/a.png"}`},
		{"no host", `{"title":"ok","image_url":"https://"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})
			req := httptest.NewRequest(http.MethodPost, "/api/memes", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := authedContext(srv, req, rec, testUser(4))

			_ = callHandler(srv.handleCreateMeme, c)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// --- handleGetMeme tests ---

func TestHandleGetMeme_Success(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		getMemeFn: func(_ context.Context, memeID, _ int64) (*app.FeedItem, error) {
			m := testMeme(memeID)
			return &app.FeedItem{Meme: m, UserVote: domain.DirectionDown}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes/42", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	err := srv.handleGetMeme(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got memeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, domain.DirectionDown, got.UserVote)
}

func TestHandleGetMeme_NotFound(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		getMemeFn: func(_ context.Context, _, _ int64) (*app.FeedItem, error) {
			return nil, domain.ErrMemeNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes/999", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	_ = callHandler(srv.handleGetMeme, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetMeme_BadID(t *testing.T) {
	tests := []string{"abc", "0", "-3"}

	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})
			req := httptest.NewRequest(http.MethodGet, "/api/memes/"+id, nil)
			rec := httptest.NewRecorder()
			c := srv.echo.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(id)

			_ = callHandler(srv.handleGetMeme, c)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// --- handleListComments tests ---

func TestHandleListComments_Success(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listCommentsFn: func(_ context.Context, memeID, _ int64) ([]app.CommentItem, error) {
			return []app.CommentItem{
				{Comment: domain.Comment{ID: 1, MemeID: memeID, AuthorID: 2, Body: "first", Upvotes: 5}, UserVote: domain.DirectionUp},
				{Comment: domain.Comment{ID: 2, MemeID: memeID, AuthorID: 3, Body: "second"}, UserVote: domain.DirectionNone},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes/7/comments", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	err := srv.handleListComments(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Comments []commentView `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Body)
	assert.Equal(t, int64(7), got.Comments[0].MemeID)
	assert.Equal(t, domain.DirectionUp, got.Comments[0].UserVote)
}

func TestHandleListComments_MemeNotFound(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listCommentsFn: func(_ context.Context, _, _ int64) ([]app.CommentItem, error) {
			return nil, domain.ErrMemeNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes/999/comments", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	_ = callHandler(srv.handleListComments, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- handleAddComment tests ---

func TestHandleAddComment_Success(t *testing.T) {
	user := testUser(5)
	var gotMemeID, gotAuthorID int64
	var gotBody string
	srv := newTestServer(t, &mockAppService{
		addCommentFn: func(_ context.Context, memeID, authorID int64, body string) (*domain.Comment, error) {
			gotMemeID, gotAuthorID, gotBody = memeID, authorID, body
			return &domain.Comment{ID: 11, MemeID: memeID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}, nil
		},
	})

	body := `{"body":"nice one"}`
	req := httptest.NewRequest(http.MethodPost, "/api/memes/7/comments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, user)
	c.SetParamNames("id")
	c.SetParamValues("7")

	err := srv.handleAddComment(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), gotMemeID)
	assert.Equal(t, user.ID, gotAuthorID)
	assert.Equal(t, "nice one", gotBody)

	var got commentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, domain.DirectionNone, got.UserVote)
}

func TestHandleAddComment_EmptyBody(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	body := `{"body":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/api/memes/7/comments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(5))
	c.SetParamNames("id")
	c.SetParamValues("7")

	_ = callHandler(srv.handleAddComment, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddComment_MemeNotFound(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		addCommentFn: func(_ context.Context, _, _ int64, _ string) (*domain.Comment, error) {
			return nil, domain.ErrMemeNotFound
		},
	})

	body := `{"body":"into the void"}`
	req := httptest.NewRequest(http.MethodPost, "/api/memes/999/comments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(5))
	c.SetParamNames("id")
	c.SetParamValues("999")

	_ = callHandler(srv.handleAddComment, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
