package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

type KPIConfigHandler struct {
	configs *usecase.KPIConfigUseCase
	log     logger.Logger
}

func NewKPIConfigHandler(configs *usecase.KPIConfigUseCase, log logger.Logger) *KPIConfigHandler {
	return &KPIConfigHandler{configs: configs, log: log}
}

func (h *KPIConfigHandler) respond(w http.ResponseWriter, r *http.Request, list []*entity.KPIConfig, err error) {
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if list == nil {
		list = []*entity.KPIConfig{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Visible lists the KPIs the caller's role may see.
func (h *KPIConfigHandler) Visible(w http.ResponseWriter, r *http.Request) {
	list, err := h.configs.Visible(r.Context(), middleware.CurrentUser(r))
	h.respond(w, r, list, err)
}

func (h *KPIConfigHandler) All(w http.ResponseWriter, r *http.Request) {
	list, err := h.configs.All(r.Context())
	h.respond(w, r, list, err)
}

func (h *KPIConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in usecase.KPIConfigUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	cfg, err := h.configs.Update(r.Context(), middleware.CurrentUser(r), chi.URLParam(r, "name"), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
