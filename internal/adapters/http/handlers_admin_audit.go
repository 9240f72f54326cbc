package web

import (
	"net/http"

	"regulars/internal/application/projections"
)

// handleAuditLog handles GET /api/audit-log (admin)
// Filters: actor_id, action_type, entity_type, start_date, end_date, page, limit.
func (s *server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", projections.DefaultAuditPageSize)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := projections.GetAuditLog(r.Context(), projections.GetAuditLogQuery{
		ActorID:    q.Get("actor_id"),
		ActionType: q.Get("action_type"),
		EntityType: q.Get("entity_type"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Page:       page,
		Limit:      limit,
	}, projections.GetAuditLogDeps{
		AuditStore:   s.stores.Audit,
		AccountStore: s.stores.Accounts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
