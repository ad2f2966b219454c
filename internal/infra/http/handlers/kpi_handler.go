package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type KPIHandler struct {
	kpis *usecase.KPIUseCase
	log  logger.Logger
}

func NewKPIHandler(kpis *usecase.KPIUseCase, log logger.Logger) *KPIHandler {
	return &KPIHandler{kpis: kpis, log: log}
}

// kpiQuery reads period (default week) and, for custom periods, start and
// end as YYYY-MM-DD.
func kpiQuery(r *http.Request) (usecase.KPIQuery, error) {
	q := usecase.KPIQuery{Period: kpi.Period(r.URL.Query().Get("period"))}
	if q.Period == "" {
		q.Period = kpi.PeriodWeek
	}
	var err error
	if q.Start, err = queryDate(r, "start"); err != nil {
		return q, err
	}
	if q.End, err = queryDate(r, "end"); err != nil {
		return q, err
	}
	return q, nil
}

// serve decodes the period and writes whatever fn returns.
func (h *KPIHandler) serve(w http.ResponseWriter, r *http.Request, fn func(q usecase.KPIQuery) (any, error)) {
	q, err := kpiQuery(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	out, err := fn(q)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *KPIHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.Me(r.Context(), middleware.CurrentUser(r), q)
	})
}

func (h *KPIHandler) MeCards(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		cards, err := h.kpis.MeCards(r.Context(), middleware.CurrentUser(r), q)
		if cards == nil && err == nil {
			cards = []kpi.Card{}
		}
		return cards, err
	})
}

func (h *KPIHandler) Team(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.Team(r.Context(), middleware.CurrentUser(r), q)
	})
}

func (h *KPIHandler) TeamByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.TeamByID(r.Context(), middleware.CurrentUser(r), id, q)
	})
}

func (h *KPIHandler) User(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.User(r.Context(), middleware.CurrentUser(r), id, q)
	})
}

func (h *KPIHandler) Journey(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.Journey(r.Context(), middleware.CurrentUser(r), q)
	})
}

func (h *KPIHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(q usecase.KPIQuery) (any, error) {
		return h.kpis.Overview(r.Context(), middleware.CurrentUser(r), q)
	})
}

// ExportTeam streams the team KPIs as an xlsx attachment. The workbook is
// built in memory first so failures still produce a JSON error.
func (h *KPIHandler) ExportTeam(w http.ResponseWriter, r *http.Request) {
	q, err := kpiQuery(r)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.kpis.ExportTeam(r.Context(), middleware.CurrentUser(r), q, &buf); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="team-kpis-%s.xlsx"`, q.Period))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
