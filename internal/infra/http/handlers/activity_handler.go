package handlers

import (
	"net/http"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

// ActivityHandler runs a complete logging form server side.
type ActivityHandler struct {
	activities *usecase.ActivityUseCase
	log        logger.Logger
}

func NewActivityHandler(activities *usecase.ActivityUseCase, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, log: log}
}

func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	var d activity.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	res, err := h.activities.Record(r.Context(), middleware.CurrentUser(r), d)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	switch {
	case res.Call != nil:
		middleware.RecordActivity("call", string(res.Call.Outcome), 0)
	case res.Appointment != nil:
		middleware.RecordActivity("appointment", string(res.Appointment.Result), 0)
	case res.Closing != nil:
		middleware.RecordActivity("closing", string(res.Closing.Result), res.Closing.Units)
	}
	writeJSON(w, http.StatusCreated, res)
}
