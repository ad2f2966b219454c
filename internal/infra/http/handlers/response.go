package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Detail string                   `json:"detail"`
	Code   string                   `json:"code"`
	Errors []entity.ValidationError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &usecase.DomainError{Code: usecase.CodeValidation, Message: "Ungültiges JSON"}
	}
	return nil
}

// writeError renders err in the API error shape. Technical errors are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	var verrs entity.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Detail: verrs.Error(),
			Code:   usecase.CodeValidation,
			Errors: verrs,
		})
		return
	}
	if de, ok := usecase.AsDomainError(err); ok {
		writeJSON(w, middleware.StatusFor(de.Code), ErrorResponse{Detail: de.Message, Code: de.Code})
		return
	}
	log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "Interner Serverfehler", Code: usecase.CodeInternal})
}

func badRequest(msg string) error {
	return &usecase.DomainError{Code: usecase.CodeValidation, Message: msg}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("Ungültige ID")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("Ungültiger Wert für " + name)
	}
	return n, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest("Ungültiger Wert für " + name)
	}
	return &n, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// queryDate parses a YYYY-MM-DD parameter as midnight UTC.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, badRequest("Ungültiges Datum für " + name)
	}
	return &t, nil
}
