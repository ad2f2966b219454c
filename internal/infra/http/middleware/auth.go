package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

// CSRFHeader carries the token returned by login and /me.
const CSRFHeader = "X-CSRF-Token"

type ctxKey int

const userKey ctxKey = iota

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the user set by Session, or nil.
func CurrentUser(r *http.Request) *entity.User {
	u, _ := r.Context().Value(userKey).(*entity.User)
	return u
}

// Authenticator resolves the session cookie to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, *auth.Claims, error)
}

// Session rejects requests without a valid session cookie.
func Session(a Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}
			u, _, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// CSRF checks the X-CSRF-Token header on state-changing requests. It must
// run after Session.
func CSRF(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			u := CurrentUser(r)
			token := r.Header.Get(CSRFHeader)
			if u == nil || token == "" || sessions.VerifyCSRF(token, u.ID) != nil {
				writeError(w, &usecase.DomainError{Code: usecase.CodeForbidden, Message: "CSRF-Token ungültig oder abgelaufen"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles lets only users with one of roles through.
func RequireRoles(roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r)
			if u == nil {
				writeError(w, &usecase.DomainError{Code: usecase.CodeUnauthorized, Message: "Nicht authentifiziert"})
				return
			}
			if err := usecase.RequireRoles(u, roles...); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError renders domain errors in the API error shape. Middleware only
// produces domain errors, anything else is reported as internal.
func writeError(w http.ResponseWriter, err error) {
	status, code, detail := http.StatusInternalServerError, usecase.CodeInternal, "Interner Serverfehler"
	if de, ok := usecase.AsDomainError(err); ok {
		status, code, detail = StatusFor(de.Code), de.Code, de.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail, "code": code})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeUnauthorized:
		return http.StatusUnauthorized
	case usecase.CodeForbidden:
		return http.StatusForbidden
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
