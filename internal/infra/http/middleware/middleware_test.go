package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

type stubAuth struct {
	user *entity.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*entity.User, *auth.Claims, error) {
	if token != "good" {
		return nil, nil, &usecase.DomainError{Code: usecase.CodeUnauthorized, Message: "Nicht authentifiziert"}
	}
	return s.user, &auth.Claims{}, nil
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSessionAndRoles(t *testing.T) {
	starter := &entity.User{ID: 3, Role: entity.RoleStarter}
	h := Session(stubAuth{user: starter}, "session")(RequireRoles(entity.RoleAdmin)(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec)["code"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Keine Berechtigung für diese Aktion", decodeError(t, rec)["detail"])

	var seen *entity.User
	h = Session(stubAuth{user: starter}, "session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, starter, seen)
}

func TestCSRF(t *testing.T) {
	sessions := auth.NewSessionManager("secret", time.Hour, time.Hour, nil)
	u := &entity.User{ID: 5, Role: entity.RoleStarter}
	token, err := sessions.IssueCSRF(u.ID)
	require.NoError(t, err)
	foreign, err := sessions.IssueCSRF(6)
	require.NoError(t, err)

	h := CSRF(sessions)(ok)
	serve := func(method, header string) int {
		req := httptest.NewRequest(method, "/", nil)
		req = req.WithContext(WithUser(req.Context(), u))
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(http.MethodGet, ""))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodPost, ""))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodPost, foreign))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "garbage"))
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPatch, token))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Handler(ok)

	serve := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve("1.1.1.1").Code)
	assert.Equal(t, http.StatusNoContent, serve("1.1.1.1").Code)
	rec := serve("1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec)["code"])
	assert.Equal(t, http.StatusNoContent, serve("2.2.2.2").Code)

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusNoContent, serve("1.1.1.1").Code)

	now = now.Add(10 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.visitors)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(req))
}

func TestRateLimiterIgnoresSpoofedForwardingHeaders(t *testing.T) {
	h := NewRateLimiter(2).Handler(ok)

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(usecase.CodeConflict))
	assert.Equal(t, http.StatusNotFound, StatusFor(usecase.CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("WHATEVER"))
}
