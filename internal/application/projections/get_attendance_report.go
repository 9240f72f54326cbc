package projections

import (
	"context"
	"fmt"

	"regulars/internal/adapters/storage/batch"
	"regulars/internal/adapters/storage/session"
)

// SessionTally is one session row of the attendance report.
type SessionTally struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Total   int    `json:"total"`
}

// BatchAttendance aggregates a batch's sessions in the report.
type BatchAttendance struct {
	BatchID       string         `json:"batch_id"`
	BatchName     string         `json:"batch_name"`
	TotalSessions int            `json:"total_sessions"`
	TotalPresent  int            `json:"total_present"`
	TotalAbsent   int            `json:"total_absent"`
	Sessions      []SessionTally `json:"sessions"`
}

// GetAttendanceReportQuery narrows the report. Empty fields do not filter.
type GetAttendanceReportQuery struct {
	BatchID  string
	FromDate string // YYYY-MM-DD, inclusive
	ToDate   string // YYYY-MM-DD, inclusive
}

// GetAttendanceReportDeps holds dependencies for the attendance report.
type GetAttendanceReportDeps struct {
	SessionStore    SessionStore
	AttendanceStore AttendanceStore
	BatchStore      BatchStore
}

// GetAttendanceReport tallies attendance per batch and session. Batches
// appear in the order their newest matching session is found.
func GetAttendanceReport(ctx context.Context, query GetAttendanceReportQuery, deps GetAttendanceReportDeps) ([]BatchAttendance, error) {
	filter := session.ListFilter{FromDate: query.FromDate, ToDate: query.ToDate}
	if query.BatchID != "" {
		filter.BatchIDs = []string{query.BatchID}
	}
	sessions, err := deps.SessionStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	counts, err := deps.AttendanceStore.CountBySessions(ctx, sessionIDs(sessions))
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	batches, err := deps.BatchStore.List(ctx, batch.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	names := make(map[string]string, len(batches))
	for _, b := range batches {
		names[b.ID] = b.BatchName
	}

	report := []BatchAttendance{}
	index := make(map[string]int)
	for _, s := range sessions {
		i, ok := index[s.BatchID]
		if !ok {
			name, known := names[s.BatchID]
			if !known {
				name = unknownName
			}
			report = append(report, BatchAttendance{BatchID: s.BatchID, BatchName: name, Sessions: []SessionTally{}})
			i = len(report) - 1
			index[s.BatchID] = i
		}
		c := counts[s.ID]
		row := &report[i]
		row.TotalSessions++
		row.TotalPresent += c.Present
		row.TotalAbsent += c.Absent
		row.Sessions = append(row.Sessions, SessionTally{Date: s.Date, Present: c.Present, Absent: c.Absent, Total: c.Total})
	}
	return report, nil
}
