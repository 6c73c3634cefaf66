package api

import "net/http"

// StudentsHandler serves student-facing nudges.
type StudentsHandler struct {
	deps Dependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps Dependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleNudges handles GET /students/{id}/nudges?group=G. Without a group
// the student's group is resolved from membership.
func (h *StudentsHandler) HandleNudges(w http.ResponseWriter, r *http.Request) {
	const op = "api.student_nudges"
	studentID := r.PathValue("id")

	id, ok := caller(r)
	if !ok {
		fail(w, r, op, NewKind(op, ErrUnauthenticated))
		return
	}
	if !id.CanActAs(studentID) {
		fail(w, r, op, NewKind(op, ErrForbidden))
		return
	}

	nudges, err := h.deps.StudentNudges(r.Context(), studentID, r.URL.Query().Get("group"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nudges)
}
