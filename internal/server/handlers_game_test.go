package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DirtyReal/cfh-new/internal/domain"
)

func TestHandleGameScene_Opening(t *testing.T) {
	opening, err := domain.SceneByID(domain.OpeningSceneID)
	require.NoError(t, err)

	var gotUserID int64
	srv := newTestServer(t, &mockAppService{
		currentSceneFn: func(_ context.Context, userID int64) (domain.GameScene, error) {
			gotUserID = userID
			return opening, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(8))

	err = srv.handleGameScene(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), gotUserID)

	var got sceneView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, opening.ID, got.ID)
	assert.Equal(t, opening.Text, got.Text)
	assert.Len(t, got.Choices, len(opening.Choices))
	assert.False(t, got.Ending)
	assert.NotContains(t, rec.Body.String(), `"next"`, "scene targets stay server-side")
}

func TestHandleGameScene_Ending(t *testing.T) {
	ending := domain.GameScene{ID: "finale", Text: "The archive closes behind you."}
	srv := newTestServer(t, &mockAppService{
		currentSceneFn: func(_ context.Context, _ int64) (domain.GameScene, error) {
			return ending, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(8))

	err := srv.handleGameScene(c)
	require.NoError(t, err)

	var got sceneView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Ending)
	assert.Empty(t, got.Choices)
}

func TestHandleGameChoice_Advances(t *testing.T) {
	opening, err := domain.SceneByID(domain.OpeningSceneID)
	require.NoError(t, err)
	require.NotEmpty(t, opening.Choices)
	label := opening.Choices[0].Label

	next, err := opening.Choose(label)
	require.NoError(t, err)

	var gotLabel string
	srv := newTestServer(t, &mockAppService{
		chooseFn: func(_ context.Context, _ int64, choice string) (domain.GameScene, error) {
			gotLabel = choice
			return next, nil
		},
	})

	body, err := json.Marshal(gameChoiceRequest{Choice: label})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/game/choice", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(8))

	err = srv.handleGameChoice(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, label, gotLabel)

	var got sceneView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, next.ID, got.ID)
}

func TestHandleGameChoice_InvalidChoice(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		chooseFn: func(_ context.Context, _ int64, _ string) (domain.GameScene, error) {
			return domain.GameScene{}, domain.ErrInvalidChoice
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/game/choice", strings.NewReader(`{"choice":"sprint for the exit"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(8))

	_ = callHandler(srv.handleGameChoice, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGameChoice_EmptyChoice(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodPost, "/api/game/choice", strings.NewReader(`{"choice":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(srv, req, rec, testUser(8))

	_ = callHandler(srv.handleGameChoice, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
