package handlers

import (
	"net/http"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

// AdminHandler serves /api/admin. Every route sits behind RequireRoles(admin).
type AdminHandler struct {
	admin *usecase.AdminUseCase
	log   logger.Logger
}

func NewAdminHandler(admin *usecase.AdminUseCase, log logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	limit, err := queryInt(r, "limit", usecase.DefaultPageLimit)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	q := usecase.UserListQuery{
		Skip:    skip,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortKey: views.MemberSortKey(r.URL.Query().Get("sortKey")),
		Desc:    queryBool(r, "desc"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := entity.UserStatus(s)
		q.Status = &status
	}
	if s := r.URL.Query().Get("role"); s != "" {
		role := entity.UserRole(s)
		q.Role = &role
	}

	users, err := h.admin.ListUsers(r.Context(), q)
	h.users(w, r, users, err)
}

func (h *AdminHandler) PendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.PendingUsers(r.Context())
	h.users(w, r, users, err)
}

func (h *AdminHandler) users(w http.ResponseWriter, r *http.Request, users []*entity.User, err error) {
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if users == nil {
		users = []*entity.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in usecase.UserCreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	u, err := h.admin.CreateUser(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in usecase.UserUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	u, err := h.admin.UpdateUser(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if err := h.admin.DeleteUser(r.Context(), middleware.CurrentUser(r), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in usecase.ApproveInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	u, err := h.admin.Approve(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in usecase.RejectInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	u, err := h.admin.Reject(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.admin.ListTeams(r.Context())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if teams == nil {
		teams = []*entity.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *AdminHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var in usecase.TeamInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	team, err := h.admin.CreateTeam(r.Context(), middleware.CurrentUser(r), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *AdminHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var in usecase.TeamInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	team, err := h.admin.UpdateTeam(r.Context(), middleware.CurrentUser(r), id, in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *AdminHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if err := h.admin.DeleteTeam(r.Context(), middleware.CurrentUser(r), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	limit, err := queryInt(r, "limit", usecase.DefaultPageLimit)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	userID, err := queryInt64(r, "userId")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	q := usecase.AuditQuery{Skip: skip, Limit: limit, UserID: userID}
	if a := r.URL.Query().Get("action"); a != "" {
		action := entity.AuditAction(a)
		q.Action = &action
	}

	logs, err := h.admin.AuditLogs(r.Context(), q)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if logs == nil {
		logs = []*entity.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
