package projections

import (
	"context"
	"fmt"
	"time"

	"regulars/internal/adapters/storage/dancer"
	"regulars/internal/adapters/storage/pass"
	"regulars/internal/adapters/storage/session"
	domainPass "regulars/internal/domain/pass"
	domainSession "regulars/internal/domain/session"
)

// DashboardStats are the headline numbers on the staff dashboard.
type DashboardStats struct {
	ActiveBatches int `json:"active_batches"`
	TotalDancers  int `json:"total_dancers"`
	ExpiringSoon  int `json:"expiring_soon"`
	Expired       int `json:"expired"`
	TodaySessions int `json:"today_sessions"`
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	BatchStore    BatchStore
	DancerStore   DancerStore
	PassStore     PassStore
	SessionStore  SessionStore
	SettingsStore SettingsStore
	Now           func() time.Time
}

// GetDashboard computes the dashboard for the viewer. Admins see studio-wide
// numbers; instructors see their assigned batches, where dancers are counted
// by the passes they hold there.
func GetDashboard(ctx context.Context, viewer Viewer, deps GetDashboardDeps) (DashboardStats, error) {
	batches, err := visibleBatches(ctx, deps.BatchStore, viewer)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list batches: %w", err)
	}
	stats := DashboardStats{ActiveBatches: len(batches)}
	if len(batches) == 0 && !viewer.IsAdmin() {
		return stats, nil
	}

	filter := pass.ListFilter{}
	sessionFilter := session.ListFilter{}
	if !viewer.IsAdmin() {
		for _, b := range batches {
			filter.BatchIDs = append(filter.BatchIDs, b.ID)
		}
		sessionFilter.BatchIDs = filter.BatchIDs
	}
	passes, err := deps.PassStore.List(ctx, filter)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list passes: %w", err)
	}
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load settings: %w", err)
	}
	now := clock(deps.Now)

	holders := make(map[string]bool)
	for _, p := range passes {
		holders[p.DancerID] = true
		switch domainPass.Resolve(p, s, now) {
		case domainPass.StatusExpiringSoon:
			stats.ExpiringSoon++
		case domainPass.StatusExpired:
			stats.Expired++
		}
	}

	if viewer.IsAdmin() {
		dancers, err := deps.DancerStore.List(ctx, dancer.ListFilter{ActiveOnly: true})
		if err != nil {
			return DashboardStats{}, fmt.Errorf("list dancers: %w", err)
		}
		stats.TotalDancers = len(dancers)
	} else {
		stats.TotalDancers = len(holders)
	}

	today := now.UTC().Format(domainSession.DateLayout)
	sessionFilter.FromDate, sessionFilter.ToDate = today, today
	sessions, err := deps.SessionStore.List(ctx, sessionFilter)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list sessions: %w", err)
	}
	stats.TodaySessions = len(sessions)
	return stats, nil
}
