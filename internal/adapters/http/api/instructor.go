package api

import (
	"net/http"

	"github.com/okian/teampulse/internal/domain/escalate"
	"github.com/okian/teampulse/internal/domain/model"
)

// InstructorHandler serves the course-wide instructor feed.
type InstructorHandler struct {
	deps Dependencies
}

// NewInstructorHandler creates a new instructor handler.
func NewInstructorHandler(deps Dependencies) *InstructorHandler {
	return &InstructorHandler{deps: deps}
}

// HandleAlerts handles GET /instructor/alerts.
func (h *InstructorHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r, "api.instructor_alerts")
	if !ok {
		return
	}
	alerts := feed.Alerts
	if alerts == nil {
		alerts = []model.InstructorAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// HandleRecommendations handles GET /instructor/recommendations.
func (h *InstructorHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r, "api.instructor_recommendations")
	if !ok {
		return
	}
	recs := feed.Recommendations
	if recs == nil {
		recs = []model.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleSummary handles GET /instructor/summary.
func (h *InstructorHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r, "api.instructor_summary")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, feed.Summary)
}

func (h *InstructorHandler) feed(w http.ResponseWriter, r *http.Request, op string) (escalate.Feed, bool) {
	feed, err := h.deps.InstructorFeed(r.Context())
	if err != nil {
		fail(w, r, op, err)
		return escalate.Feed{}, false
	}
	return feed, true
}
