package web

import (
	"net/http"

	"regulars/internal/application/orchestrators"
	"regulars/internal/application/projections"
)

func (s *server) passesDeps() projections.GetPassesDeps {
	return projections.GetPassesDeps{
		PassStore:     s.stores.Passes,
		SettingsStore: s.stores.Settings,
		Now:           s.now,
	}
}

// handleListPasses handles GET /api/passes?dancer_id=&batch_id=
func (s *server) handleListPasses(w http.ResponseWriter, r *http.Request) {
	query := projections.GetPassesQuery{
		DancerID: r.URL.Query().Get("dancer_id"),
		BatchID:  r.URL.Query().Get("batch_id"),
	}
	views, err := projections.GetPasses(r.Context(), query, s.passesDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleCreatePass handles POST /api/passes
func (s *server) handleCreatePass(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.CreatePassInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.ActorID = id.AccountID
	p, err := orchestrators.ExecuteCreatePass(r.Context(), input, orchestrators.CreatePassDeps{
		Passes:  s.stores.Passes,
		Dancers: s.stores.Dancers,
		Batches: s.stores.Batches,
		Audit:   s.audit,
		Now:     s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleRenewPass handles PUT /api/passes/{id}/renew
func (s *server) handleRenewPass(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.RenewPassInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &input) {
		return
	}
	input.PassID = r.PathValue("id")
	input.ActorID = id.AccountID
	p, err := orchestrators.ExecuteRenewPass(r.Context(), input, orchestrators.RenewPassDeps{
		Passes: s.stores.Passes,
		Audit:  s.audit,
		Now:    s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
