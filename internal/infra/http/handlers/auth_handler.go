package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	auth   *usecase.AuthUseCase
	cookie CookieConfig
	log    logger.Logger
}

func NewAuthHandler(auth *usecase.AuthUseCase, cookie CookieConfig, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, log: log}
}

type SessionResponse struct {
	User      *entity.User `json:"user"`
	CSRFToken string       `json:"csrfToken"`
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in, middleware.ClientIP(r))
	if err != nil {
		middleware.RecordLogin("failed")
		writeError(w, h.log, r, err)
		return
	}
	middleware.RecordLogin("success")

	h.setCookie(w, res.SessionToken, int(h.cookie.MaxAge.Seconds()))
	writeJSON(w, http.StatusOK, SessionResponse{User: res.User, CSRFToken: res.CSRFToken})
}

// Logout always clears the cookie, even when the session was already gone.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		token = c.Value
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.log.Warn("revoke session failed", "error", err)
	}
	h.setCookie(w, "", -1)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Erfolgreich abgemeldet"})
}

// Me returns the current user and a fresh CSRF token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)
	csrf, err := h.auth.Sessions.IssueCSRF(u.ID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: u, CSRFToken: csrf})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), in, middleware.ClientIP(r))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
