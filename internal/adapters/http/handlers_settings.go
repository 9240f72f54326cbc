package web

import (
	"net/http"

	"regulars/internal/application/orchestrators"
	"regulars/internal/domain/settings"
)

// handleGetSettings handles GET /api/settings. The first read stores the defaults.
func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.stores.Settings.Get(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// handleUpdateSettings handles PUT /api/settings (admin) with a partial body.
func (s *server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var patch settings.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := orchestrators.ExecuteUpdateSettings(r.Context(), orchestrators.UpdateSettingsInput{
		Patch:   patch,
		ActorID: id.AccountID,
	}, orchestrators.UpdateSettingsDeps{
		Settings: s.stores.Settings,
		Audit:    s.audit,
		Now:      s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
