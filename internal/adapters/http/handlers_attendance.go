package web

import (
	"net/http"

	"regulars/internal/application/orchestrators"
	"regulars/internal/application/projections"
)

// idempotencyHeader carries the bulk idempotency key when the body omits it.
const idempotencyHeader = "Idempotency-Key"

// handleListAttendance handles GET /api/attendance?session_id=
func (s *server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeMessage(w, http.StatusBadRequest, "session_id is required")
		return
	}
	sess, err := s.stores.Sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.requireBatch(w, r, id, sess.BatchID); !ok {
		return
	}
	views, err := projections.GetSessionAttendance(r.Context(), sess.ID, projections.GetSessionAttendanceDeps{
		AttendanceStore: s.stores.Attendance,
		DancerStore:     s.stores.Dancers,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleMarkAttendanceBulk handles POST /api/attendance/bulk
func (s *server) handleMarkAttendanceBulk(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.MarkAttendanceInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = r.Header.Get(idempotencyHeader)
	}
	if _, ok := s.requireBatch(w, r, id, input.BatchID); !ok {
		return
	}
	input.ActorID = id.AccountID

	out, err := orchestrators.ExecuteMarkAttendanceBulk(r.Context(), input, orchestrators.MarkAttendanceDeps{
		Passes:      s.stores.Passes,
		Attendance:  s.stores.Attendance,
		Settings:    s.stores.Settings,
		Sessions:    s.stores.Sessions,
		Batches:     s.stores.Batches,
		Dancers:     s.stores.Dancers,
		Audit:       s.audit,
		Submissions: s.stores.Submissions,
		Outbox:      s.stores.Outbox,
		AlertTo:     s.alertTo,
		Locks:       s.locks,
		Workers:     s.workers,
		Now:         s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if out.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusOK, out)
}
