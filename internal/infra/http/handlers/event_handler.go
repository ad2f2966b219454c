package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

type EventHandler struct {
	events *usecase.EventUseCase
	log    logger.Logger
}

func NewEventHandler(events *usecase.EventUseCase, log logger.Logger) *EventHandler {
	return &EventHandler{events: events, log: log}
}

func (h *EventHandler) CreateCall(w http.ResponseWriter, r *http.Request) {
	var in activity.CallInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	ev, err := h.events.CreateCall(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	middleware.RecordActivity(string(entity.EventCall), string(ev.Outcome), 0)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in activity.AppointmentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	ev, err := h.events.CreateAppointment(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	middleware.RecordActivity(string(entity.EventAppointment), string(ev.Result), 0)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) CreateClosing(w http.ResponseWriter, r *http.Request) {
	var in activity.ClosingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	ev, err := h.events.CreateClosing(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	middleware.RecordActivity(string(entity.EventClosing), string(ev.Result), ev.Units)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	events, err := h.events.Recent(r.Context(), middleware.CurrentUser(r), limit)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if events == nil {
		events = []entity.RecentEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	typ := entity.EventType(chi.URLParam(r, "type"))
	if err := h.events.Delete(r.Context(), middleware.CurrentUser(r), typ, id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
