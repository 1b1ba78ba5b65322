package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/feed"
)

const csrfTokenCookieName = "csrf_token"

// fetchCSRFCookie performs a safe request through the full middleware chain
// and returns the double-submit cookie it issues.
func fetchCSRFCookie(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/memes", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, csrfTokenCookieName)
	require.NotNil(t, cookie, "CSRF cookie should be set")
	return cookie
}

func TestCSRFProtection_Newsletter(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listFeedFn: func(_ context.Context, _ feed.Policy, _, _ int, _ int64) ([]app.FeedItem, error) {
			return nil, nil
		},
		subscribeFn: func(_ context.Context, _ string) error {
			return nil
		},
	})

	t.Run("rejects POST without CSRF token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(`{"email":"reader@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		srv.echo.ServeHTTP(rec, req)

		// Echo's CSRF middleware returns 400 Bad Request, not 403
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("accepts POST with valid CSRF token in header", func(t *testing.T) {
		csrfCookie := fetchCSRFCookie(t, srv)

		req := httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(`{"email":"reader@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", csrfCookie.Value)
		req.AddCookie(csrfCookie)
		rec := httptest.NewRecorder()

		srv.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("rejects POST with mismatched token", func(t *testing.T) {
		csrfCookie := fetchCSRFCookie(t, srv)

		req := httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(`{"email":"reader@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", "forged-token")
		req.AddCookie(csrfCookie)
		rec := httptest.NewRecorder()

		srv.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCSRFProtection_SafeMethodsPass(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listFeedFn: func(_ context.Context, _ feed.Policy, _, _ int, _ int64) ([]app.FeedItem, error) {
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/memes", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFProtection_HealthExempt(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, findCookie(rec, csrfTokenCookieName), "probes stay outside the CSRF perimeter")
}
