package web

import (
	"net/http"

	batchStore "regulars/internal/adapters/storage/batch"
	dancerStore "regulars/internal/adapters/storage/dancer"
	"regulars/internal/application/orchestrators"
	"regulars/internal/application/projections"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
)

// dancerDetail is a dancer with every pass they hold.
type dancerDetail struct {
	dancer.Dancer
	Passes []projections.PassView `json:"passes"`
}

// handleListDancers handles GET /api/dancers?search=&active=&limit=&offset=
func (s *server) handleListDancers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.stores.Dancers.List(r.Context(), dancerStore.ListFilter{
		ActiveOnly: r.URL.Query().Get("active") != "false",
		Search:     r.URL.Query().Get("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if list == nil {
		list = []dancer.Dancer{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateDancer handles POST /api/dancers
func (s *server) handleCreateDancer(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.CreateDancerInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.ActorID = id.AccountID
	d, err := orchestrators.ExecuteCreateDancer(r.Context(), input, orchestrators.CreateDancerDeps{
		Dancers: s.stores.Dancers,
		Audit:   s.audit,
		Now:     s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleGetDancer handles GET /api/dancers/{id}
func (s *server) handleGetDancer(w http.ResponseWriter, r *http.Request) {
	d, err := s.stores.Dancers.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	passes, err := projections.GetPasses(r.Context(), projections.GetPassesQuery{DancerID: d.ID}, s.passesDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dancerDetail{Dancer: d, Passes: passes})
}

// handleListBatches handles GET /api/batches. Instructors see only the
// batches they are assigned to.
func (s *server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filter := batchStore.ListFilter{ActiveOnly: r.URL.Query().Get("active") == "true"}
	if !id.IsAdmin() {
		filter.InstructorID = id.AccountID
	}
	list, err := s.stores.Batches.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	if list == nil {
		list = []batch.Batch{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetBatch handles GET /api/batches/{id}
func (s *server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	b, ok := s.requireBatch(w, r, id, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleCreateBatch handles POST /api/batches (admin)
func (s *server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.CreateBatchInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.ActorID = id.AccountID
	b, err := orchestrators.ExecuteCreateBatch(r.Context(), input, orchestrators.CreateBatchDeps{
		Batches: s.stores.Batches,
		Audit:   s.audit,
		Now:     s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
