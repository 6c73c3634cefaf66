package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/teampulse/internal/domain/model"
)

// defaultHistoryLimit applies when GET /groups/{id}/history has no limit.
const defaultHistoryLimit = 20

// GroupsHandler serves per-group analytics.
type GroupsHandler struct {
	deps Dependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps Dependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

// HandleList handles GET /groups.
func (h *GroupsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_groups"
	groups, err := h.deps.Groups(r.Context())
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if groups == nil {
		groups = []model.GroupDescriptor{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleMetrics handles GET /groups/{id}/metrics.
func (h *GroupsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.group_metrics"
	groupID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	m, err := h.deps.GroupMetrics(r.Context(), groupID)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleAlerts handles GET /groups/{id}/alerts.
func (h *GroupsHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	const op = "api.group_alerts"
	alerts, err := h.deps.GroupAlerts(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// HandleReport handles GET /groups/{id}/report.
func (h *GroupsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.group_report"
	groupID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	report, err := h.deps.GroupReport(r.Context(), groupID)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleHistory handles GET /groups/{id}/history?limit=N.
func (h *GroupsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.group_history"
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(w, r, op, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}
	history, err := h.deps.HealthHistory(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type refreshResponse struct {
	Status string           `json:"status"`
	Job    model.RefreshJob `json:"job"`
}

// HandleRefresh handles POST /groups/{id}/refresh.
func (h *GroupsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.group_refresh"
	job, err := h.deps.RefreshGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", Job: job})
}

// authorize resolves the path group and checks the caller may view it.
// Staff see every group; students only their own.
func (h *GroupsHandler) authorize(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id, ok := caller(r)
	if !ok {
		fail(w, r, op, NewKind(op, ErrUnauthenticated))
		return "", false
	}
	groupID := r.PathValue("id")
	if id.Role.Staff() {
		return groupID, true
	}
	g, err := h.deps.Group(r.Context(), groupID)
	if err != nil {
		fail(w, r, op, err)
		return "", false
	}
	if !id.CanViewGroup(g) {
		fail(w, r, op, NewKind(op, ErrForbidden))
		return "", false
	}
	return groupID, true
}
