package web

import (
	"net/http"

	"regulars/internal/adapters/http/middleware"
	"regulars/internal/domain/account"
)

// registerRoutes maps every API endpoint. Handlers behind authed require a
// valid bearer token; handlers behind admin additionally require the admin role.
func (s *server) registerRoutes(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireRole(account.RoleAdmin)(h) }

	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Identity
	mux.HandleFunc("GET /api/auth/csrf", s.handleCSRFToken)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/me", authed(s.handleMe))
	mux.Handle("GET /api/users", admin(s.handleListInstructors))
	mux.Handle("POST /api/users", admin(s.handleCreateInstructor))

	// Records
	mux.Handle("GET /api/dancers", authed(s.handleListDancers))
	mux.Handle("POST /api/dancers", authed(s.handleCreateDancer))
	mux.Handle("GET /api/dancers/{id}", authed(s.handleGetDancer))
	mux.Handle("GET /api/batches", authed(s.handleListBatches))
	mux.Handle("POST /api/batches", admin(s.handleCreateBatch))
	mux.Handle("GET /api/batches/{id}", authed(s.handleGetBatch))

	// Sessions and attendance
	mux.Handle("GET /api/sessions/today", authed(s.handleTodaySession))
	mux.Handle("GET /api/sessions", authed(s.handleListSessions))
	mux.Handle("POST /api/sessions", authed(s.handleCreateSession))
	mux.Handle("GET /api/attendance", authed(s.handleListAttendance))
	mux.Handle("POST /api/attendance/bulk", authed(s.handleMarkAttendanceBulk))

	// Passes
	mux.Handle("GET /api/passes", authed(s.handleListPasses))
	mux.Handle("POST /api/passes", authed(s.handleCreatePass))
	mux.Handle("PUT /api/passes/{id}/renew", authed(s.handleRenewPass))

	// Settings, notifications and reports
	mux.Handle("GET /api/settings", authed(s.handleGetSettings))
	mux.Handle("PUT /api/settings", admin(s.handleUpdateSettings))
	mux.Handle("GET /api/notifications", authed(s.handleNotifications))
	mux.Handle("GET /api/dashboard/stats", authed(s.handleDashboard))
	mux.Handle("GET /api/reports/expiring", admin(s.handleExpiringReport))
	mux.Handle("GET /api/reports/attendance", admin(s.handleAttendanceReport))
	mux.Handle("GET /api/audit-log", admin(s.handleAuditLog))

	// Operations
	mux.Handle("GET /api/admin/outbox", admin(s.handleListOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/retry", admin(s.handleRetryOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/abandon", admin(s.handleAbandonOutbox))
	mux.Handle("GET /api/admin/perf", admin(s.handlePerf))
}

// handleHealth handles GET /api/health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
