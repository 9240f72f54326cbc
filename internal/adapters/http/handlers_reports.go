package web

import (
	"net/http"
	"time"

	"regulars/internal/application/projections"
	"regulars/internal/domain/session"
)

// handleNotifications handles GET /api/notifications
func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	list, err := projections.GetNotifications(r.Context(), viewerOf(id), projections.GetNotificationsDeps{
		BatchStore:    s.stores.Batches,
		PassStore:     s.stores.Passes,
		DancerStore:   s.stores.Dancers,
		SettingsStore: s.stores.Settings,
		Now:           s.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDashboard handles GET /api/dashboard/stats
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	stats, err := projections.GetDashboard(r.Context(), viewerOf(id), projections.GetDashboardDeps{
		BatchStore:    s.stores.Batches,
		DancerStore:   s.stores.Dancers,
		PassStore:     s.stores.Passes,
		SessionStore:  s.stores.Sessions,
		SettingsStore: s.stores.Settings,
		Now:           s.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleExpiringReport handles GET /api/reports/expiring (admin)
func (s *server) handleExpiringReport(w http.ResponseWriter, r *http.Request) {
	report, err := projections.GetExpiringReport(r.Context(), projections.GetExpiringReportDeps{
		PassStore:     s.stores.Passes,
		BatchStore:    s.stores.Batches,
		DancerStore:   s.stores.Dancers,
		SettingsStore: s.stores.Settings,
		Now:           s.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAttendanceReport handles GET /api/reports/attendance?batch_id=&start_date=&end_date= (admin)
func (s *server) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetAttendanceReportQuery{
		BatchID:  q.Get("batch_id"),
		FromDate: q.Get("start_date"),
		ToDate:   q.Get("end_date"),
	}
	for _, d := range []string{query.FromDate, query.ToDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(session.DateLayout, d); err != nil {
			writeError(w, projections.ErrInvalidDate)
			return
		}
	}
	report, err := projections.GetAttendanceReport(r.Context(), query, projections.GetAttendanceReportDeps{
		SessionStore:    s.stores.Sessions,
		AttendanceStore: s.stores.Attendance,
		BatchStore:      s.stores.Batches,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
