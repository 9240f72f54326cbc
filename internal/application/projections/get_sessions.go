package projections

import (
	"context"
	"fmt"

	"regulars/internal/adapters/storage/session"
	domainAttendance "regulars/internal/domain/attendance"
	domainSession "regulars/internal/domain/session"
)

// SessionSummary is a session with its attendance tallies.
type SessionSummary struct {
	domainSession.Session
	domainAttendance.Counts
}

// GetSessionsQuery carries input for the sessions projection.
type GetSessionsQuery struct {
	BatchID string
	Limit   int
}

// GetSessionsDeps holds dependencies for the sessions projection.
type GetSessionsDeps struct {
	SessionStore    SessionStore
	AttendanceStore AttendanceStore
}

// GetSessions lists a batch's sessions, newest date first, with counts of
// total, present and absent marks.
func GetSessions(ctx context.Context, query GetSessionsQuery, deps GetSessionsDeps) ([]SessionSummary, error) {
	sessions, err := deps.SessionStore.List(ctx, session.ListFilter{BatchIDs: []string{query.BatchID}, Limit: query.Limit})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	counts, err := deps.AttendanceStore.CountBySessions(ctx, sessionIDs(sessions))
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{Session: s, Counts: counts[s.ID]})
	}
	return out, nil
}

// AttendanceView is one mark with the dancer's name.
type AttendanceView struct {
	domainAttendance.Record
	DancerName string `json:"dancer_name"`
}

// GetSessionAttendanceDeps holds dependencies for the session attendance projection.
type GetSessionAttendanceDeps struct {
	AttendanceStore AttendanceStore
	DancerStore     DancerStore
}

// GetSessionAttendance lists a session's marks in the order they were made.
func GetSessionAttendance(ctx context.Context, sessionID string, deps GetSessionAttendanceDeps) ([]AttendanceView, error) {
	records, err := deps.AttendanceStore.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.DancerID)
	}
	dancers, err := deps.DancerStore.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load dancers: %w", err)
	}
	out := make([]AttendanceView, 0, len(records))
	for _, r := range records {
		name := unknownName
		if d, ok := dancers[r.DancerID]; ok {
			name = d.FullName
		}
		out = append(out, AttendanceView{Record: r, DancerName: name})
	}
	return out, nil
}

func sessionIDs(sessions []domainSession.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}
