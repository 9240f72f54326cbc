package projections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regulars/internal/adapters/storage/audit"
	domainAudit "regulars/internal/domain/audit"
)

// Audit log paging bounds.
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 200
)

// GetAuditLogQuery carries the audit log filters. Empty strings do not filter.
type GetAuditLogQuery struct {
	ActorID    string
	ActionType string
	EntityType string
	StartDate  string // YYYY-MM-DD, inclusive
	EndDate    string // YYYY-MM-DD, inclusive through the end of the day
	Page       int
	Limit      int
}

// AuditLogPage is one page of the audit log.
type AuditLogPage struct {
	Logs  []domainAudit.Event `json:"logs"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// GetAuditLogDeps holds dependencies for the audit log projection.
type GetAuditLogDeps struct {
	AuditStore   AuditStore
	AccountStore AccountStore
}

// ErrInvalidDate is returned for a date filter that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("dates must be YYYY-MM-DD")

// GetAuditLog returns the newest-first page of matching events, each with the
// actor's display name.
func GetAuditLog(ctx context.Context, query GetAuditLogQuery, deps GetAuditLogDeps) (AuditLogPage, error) {
	filter, err := auditFilter(query)
	if err != nil {
		return AuditLogPage{}, err
	}
	page := max(query.Page, 1)
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultAuditPageSize
	}
	limit = min(limit, MaxAuditPageSize)

	total, err := deps.AuditStore.Count(ctx, filter)
	if err != nil {
		return AuditLogPage{}, fmt.Errorf("count audit events: %w", err)
	}
	events, err := deps.AuditStore.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return AuditLogPage{}, fmt.Errorf("list audit events: %w", err)
	}

	names := make(map[string]string)
	for i, e := range events {
		name, ok := names[e.ActorID]
		if !ok {
			name = unknownName
			if a, err := deps.AccountStore.GetByID(ctx, e.ActorID); err == nil {
				name = a.Name
				if name == "" {
					name = a.Email
				}
			}
			names[e.ActorID] = name
		}
		events[i].ActorName = name
	}
	if events == nil {
		events = []domainAudit.Event{}
	}
	return AuditLogPage{Logs: events, Total: total, Page: page, Limit: limit}, nil
}

func auditFilter(query GetAuditLogQuery) (audit.Filter, error) {
	var f audit.Filter
	if query.ActorID != "" {
		f.ActorID = &query.ActorID
	}
	if query.ActionType != "" {
		action := domainAudit.Action(query.ActionType)
		f.Action = &action
	}
	if query.EntityType != "" {
		f.EntityType = &query.EntityType
	}
	if query.StartDate != "" {
		from, err := time.Parse(time.DateOnly, query.StartDate)
		if err != nil {
			return audit.Filter{}, ErrInvalidDate
		}
		f.FromDate = &from
	}
	if query.EndDate != "" {
		to, err := time.Parse(time.DateOnly, query.EndDate)
		if err != nil {
			return audit.Filter{}, ErrInvalidDate
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.ToDate = &to
	}
	return f, nil
}
