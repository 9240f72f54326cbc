package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"regulars/internal/adapters/http/middleware"
	"regulars/internal/application/orchestrators"
	"regulars/internal/application/projections"
	"regulars/internal/domain/account"
	"regulars/internal/domain/attendance"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
	"regulars/internal/domain/outbox"
	"regulars/internal/domain/pass"
	"regulars/internal/domain/session"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

// writeError maps domain and orchestrator errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case orchestrators.IsValidation(err),
		errors.Is(err, projections.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pass.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, dancer.ErrNotFound),
		errors.Is(err, batch.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, outbox.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pass.ErrConflict),
		errors.Is(err, session.ErrAlreadyExists),
		errors.Is(err, orchestrators.ErrEmailAlreadyExists):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		internalError(w, err)
	}
}

// decodeJSON decodes a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// identity returns the caller; routes are registered behind RequireAuth so
// a missing identity is answered with 401.
func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

func viewerOf(id middleware.Identity) projections.Viewer {
	return projections.Viewer{AccountID: id.AccountID, Role: id.Role}
}

// queryInt reads a non-negative integer query parameter, or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// requireBatch loads batchID and checks the caller may work with it: admins
// reach every batch, instructors only those they are assigned to.
func (s *server) requireBatch(w http.ResponseWriter, r *http.Request, id middleware.Identity, batchID string) (batch.Batch, bool) {
	if batchID == "" {
		writeMessage(w, http.StatusBadRequest, "batch_id is required")
		return batch.Batch{}, false
	}
	b, err := s.stores.Batches.GetByID(r.Context(), batchID)
	if err != nil {
		writeError(w, err)
		return batch.Batch{}, false
	}
	if !id.IsAdmin() && !b.HasInstructor(id.AccountID) {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", id.AccountID, "batch_id", batchID)
		writeMessage(w, http.StatusForbidden, "not assigned to this batch")
		return batch.Batch{}, false
	}
	return b, true
}
