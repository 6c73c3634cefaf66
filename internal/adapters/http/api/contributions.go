package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// contributionRequest mirrors the OpenAPI schema for POST /contributions.
type contributionRequest struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	GroupID   string  `json:"group_id"`
	Task      string  `json:"task"`
	Action    string  `json:"action"`
	Hours     float64 `json:"hours"`
	Timestamp string  `json:"timestamp"`
}

func (c contributionRequest) input() (service.ContributionInput, error) {
	in := service.ContributionInput{
		ID:        strings.TrimSpace(c.ID),
		StudentID: strings.TrimSpace(c.StudentID),
		GroupID:   strings.TrimSpace(c.GroupID),
		Task:      c.Task,
		Action:    c.Action,
		Hours:     c.Hours,
	}
	if strings.TrimSpace(c.Timestamp) != "" {
		ts, err := time.Parse(time.RFC3339, c.Timestamp)
		if err != nil {
			return in, fmt.Errorf("invalid timestamp; must be RFC3339: %w", err)
		}
		in.Timestamp = ts
	}
	return in, nil
}

type contributionResponse struct {
	Status       string                   `json:"status"`
	Duplicate    bool                     `json:"duplicate"`
	Contribution model.ContributionRecord `json:"contribution"`
}

// ContributionsHandler accepts contribution records.
type ContributionsHandler struct {
	deps Dependencies
}

// NewContributionsHandler creates a new contributions handler.
func NewContributionsHandler(deps Dependencies) *ContributionsHandler {
	return &ContributionsHandler{deps: deps}
}

// HandlePost handles POST /contributions. Students may only record their own
// work. A repeated id answers 200 with duplicate set; a fresh record 202.
func (h *ContributionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_contribution"

	var req contributionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	in, err := req.input()
	if err != nil {
		fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	id, ok := caller(r)
	if !ok {
		fail(w, r, op, NewKind(op, ErrUnauthenticated))
		return
	}
	if in.StudentID != "" && !id.CanActAs(in.StudentID) {
		fail(w, r, op, NewKind(op, ErrForbidden))
		return
	}

	rec, duplicate, err := h.deps.RecordContribution(r.Context(), in)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, contributionResponse{Status: "duplicate", Duplicate: true, Contribution: rec})
		return
	}
	writeJSON(w, http.StatusAccepted, contributionResponse{Status: "accepted", Contribution: rec})
}
