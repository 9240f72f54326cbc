package web

import (
	"net/http"

	"regulars/internal/application/orchestrators"
	"regulars/internal/application/projections"
)

func (s *server) sessionDeps() orchestrators.SessionDeps {
	return orchestrators.SessionDeps{
		Sessions: s.stores.Sessions,
		Batches:  s.stores.Batches,
		Audit:    s.audit,
		Now:      s.now,
	}
}

// handleTodaySession handles GET /api/sessions/today?batch_id=, creating
// today's session on first request.
func (s *server) handleTodaySession(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	b, ok := s.requireBatch(w, r, id, r.URL.Query().Get("batch_id"))
	if !ok {
		return
	}
	sess, err := orchestrators.ExecuteEnsureTodaySession(r.Context(), b.ID, id.AccountID, s.sessionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleCreateSession handles POST /api/sessions
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.CreateSessionInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if _, ok := s.requireBatch(w, r, id, input.BatchID); !ok {
		return
	}
	input.ActorID = id.AccountID
	sess, err := orchestrators.ExecuteCreateSession(r.Context(), input, s.sessionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// handleListSessions handles GET /api/sessions?batch_id=&limit=
func (s *server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	b, ok := s.requireBatch(w, r, id, r.URL.Query().Get("batch_id"))
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := projections.GetSessions(r.Context(), projections.GetSessionsQuery{BatchID: b.ID, Limit: limit}, projections.GetSessionsDeps{
		SessionStore:    s.stores.Sessions,
		AttendanceStore: s.stores.Attendance,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
