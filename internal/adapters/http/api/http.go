// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/teampulse/internal/adapters/identity"
	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/domain/escalate"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RecordContribution(ctx context.Context, in service.ContributionInput) (model.ContributionRecord, bool, error)

	Groups(ctx context.Context) ([]model.GroupDescriptor, error)
	Group(ctx context.Context, id string) (model.GroupDescriptor, error)
	GroupMetrics(ctx context.Context, groupID string) (model.GroupMetrics, error)
	GroupAlerts(ctx context.Context, groupID string) ([]model.Alert, error)
	GroupReport(ctx context.Context, groupID string) (service.GroupReport, error)
	HealthHistory(ctx context.Context, groupID string, limit int) ([]model.HealthSnapshot, error)
	RefreshGroup(ctx context.Context, groupID string) (model.RefreshJob, error)

	StudentNudges(ctx context.Context, studentID, groupID string) (service.StudentNudges, error)
	InstructorFeed(ctx context.Context) (escalate.Feed, error)

	RendererAvailable(ctx context.Context) bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth          *identity.Provider
	healthHandler *HealthHandler
	liveHandler   *LiveHandler
	statsHandler  *StatsHandler
	contributions *ContributionsHandler
	groups        *GroupsHandler
	students      *StudentsHandler
	instructor    *InstructorHandler
}

// NewServer creates a new API server with all handlers. A nil auth provider
// means authentication is disabled.
func NewServer(deps Dependencies, statsProvider StatsProvider, auth *identity.Provider) *Server {
	if auth == nil {
		auth = identity.Disabled()
	}
	return &Server{
		auth:          auth,
		healthHandler: NewHealthHandler(),
		liveHandler:   NewLiveHandler(deps, auth.Enabled()),
		statsHandler:  NewStatsHandler(statsProvider),
		contributions: NewContributionsHandler(deps),
		groups:        NewGroupsHandler(deps),
		students:      NewStudentsHandler(deps),
		instructor:    NewInstructorHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Operational endpoints stay open.
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /livez", MetricsMiddleware(s.liveHandler.HandleLive, "livez"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	everyone := []model.Role{model.RoleStudent, model.RoleInstructor, model.RoleAdmin}
	staff := []model.Role{model.RoleInstructor, model.RoleAdmin}

	s.route(mux, "POST /contributions", "contributions", s.contributions.HandlePost, everyone)

	s.route(mux, "GET /groups", "groups", s.groups.HandleList, staff)
	s.route(mux, "GET /groups/{id}/metrics", "group_metrics", s.groups.HandleMetrics, everyone)
	s.route(mux, "GET /groups/{id}/alerts", "group_alerts", s.groups.HandleAlerts, staff)
	s.route(mux, "GET /groups/{id}/report", "group_report", s.groups.HandleReport, everyone)
	s.route(mux, "GET /groups/{id}/history", "group_history", s.groups.HandleHistory, staff)
	s.route(mux, "POST /groups/{id}/refresh", "group_refresh", s.groups.HandleRefresh, staff)

	s.route(mux, "GET /students/{id}/nudges", "student_nudges", s.students.HandleNudges, everyone)

	s.route(mux, "GET /instructor/alerts", "instructor_alerts", s.instructor.HandleAlerts, staff)
	s.route(mux, "GET /instructor/recommendations", "instructor_recommendations", s.instructor.HandleRecommendations, staff)
	s.route(mux, "GET /instructor/summary", "instructor_summary", s.instructor.HandleSummary, staff)
}

// route registers h behind authentication, a role check and metrics.
func (s *Server) route(mux *http.ServeMux, pattern, endpoint string, h http.HandlerFunc, roles []model.Role) {
	guarded := s.auth.Middleware(identity.RequireRole(h, roles...))
	mux.HandleFunc(pattern, MetricsMiddleware(guarded.ServeHTTP, endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes it. Server errors are logged since their
// cause is not the caller's.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code, kind := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Named("api").Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

// caller returns the authenticated identity. Routes are always wrapped by the
// identity middleware, so a missing identity means a wiring bug.
func caller(r *http.Request) (identity.Identity, bool) {
	return identity.FromContext(r.Context())
}
