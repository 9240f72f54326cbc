package web

import (
	"net/http"
	"time"

	"regulars/internal/domain/outbox"
)

// maxOutboxPage bounds GET /api/admin/outbox.
const maxOutboxPage = 100

// handleListOutbox handles GET /api/admin/outbox?status=failed|pending&limit=
func (s *server) handleListOutbox(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	limit = min(max(limit, 1), maxOutboxPage)

	var entries []outbox.Entry
	switch status := r.URL.Query().Get("status"); status {
	case "", outbox.StatusFailed:
		entries, err = s.stores.Outbox.ListFailed(r.Context(), limit)
	case outbox.StatusPending:
		entries, err = s.stores.Outbox.ListPending(r.Context(), limit)
	default:
		writeMessage(w, http.StatusBadRequest, "status must be failed or pending")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRetryOutbox handles POST /api/admin/outbox/{id}/retry, attempting
// the entry now regardless of its backoff.
func (s *server) handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		writeMessage(w, http.StatusServiceUnavailable, "outbox processing is disabled")
		return
	}
	id := r.PathValue("id")
	if err := s.outbox.ProcessSingle(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	entry, err := s.stores.Outbox.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleAbandonOutbox handles POST /api/admin/outbox/{id}/abandon
func (s *server) handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		writeMessage(w, http.StatusServiceUnavailable, "outbox processing is disabled")
		return
	}
	if err := s.outbox.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": outbox.StatusAbandoned})
}

// handlePerf handles GET /api/admin/perf?minutes=
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.perf == nil {
		writeMessage(w, http.StatusServiceUnavailable, "performance collection is disabled")
		return
	}
	minutes, err := queryInt(r, "minutes", 60)
	if err != nil || minutes == 0 {
		writeMessage(w, http.StatusBadRequest, "minutes must be a positive integer")
		return
	}
	since := s.now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, s.perf.Snapshot(since, 10))
}
