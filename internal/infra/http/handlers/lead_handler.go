package handlers

import (
	"net/http"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

type LeadHandler struct {
	leads *usecase.LeadUseCase
	log   logger.Logger
}

func NewLeadHandler(leads *usecase.LeadUseCase, log logger.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, log: log}
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in activity.LeadInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	lead, err := h.leads.Create(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// List returns the leads visible to the caller, filtered and sorted by the
// search, status, view, sortKey and desc query parameters.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	q := r.URL.Query()
	out := views.Leads(leads, views.LeadQuery{
		Search:  q.Get("search"),
		Status:  entity.LeadStatus(q.Get("status")),
		View:    views.View(q.Get("view")),
		SortKey: views.LeadSortKey(q.Get("sortKey")),
		Desc:    queryBool(r, "desc"),
	})
	if out == nil {
		out = []*entity.Lead{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	lead, err := h.leads.Get(r.Context(), middleware.CurrentUser(r), id)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in usecase.LeadUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	lead, err := h.leads.UpdateNote(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in activity.StatusInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	lead, err := h.leads.UpdateStatus(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if err := h.leads.Delete(r.Context(), middleware.CurrentUser(r), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar lists scheduled entries. With only leadId set it returns the
// lead's whole calendar; otherwise period (default week) bounds it.
func (h *LeadHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	leadID, err := queryInt64(r, "leadId")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	actor := middleware.CurrentUser(r)
	period := kpi.Period(r.URL.Query().Get("period"))

	var entries []entity.CalendarEntry
	if leadID != nil && period == "" {
		entries, err = h.leads.LeadCalendar(r.Context(), actor, *leadID)
	} else {
		if period == "" {
			period = kpi.PeriodWeek
		}
		entries, err = h.leads.Calendar(r.Context(), actor, period, leadID)
	}
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if entries == nil {
		entries = []entity.CalendarEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
