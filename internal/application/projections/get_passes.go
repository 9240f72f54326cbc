package projections

import (
	"context"
	"fmt"
	"time"

	"regulars/internal/adapters/storage/pass"
	domainPass "regulars/internal/domain/pass"
)

// PassView is a stored pass with its status resolved at query time.
type PassView struct {
	domainPass.Record
	ComputedStatus domainPass.Status `json:"computed_status"`
}

// GetPassesQuery carries input for the passes projection.
type GetPassesQuery struct {
	DancerID string
	BatchID  string
}

// GetPassesDeps holds dependencies for the passes projection.
type GetPassesDeps struct {
	PassStore     PassStore
	SettingsStore SettingsStore
	Now           func() time.Time
}

// GetPasses lists passes, newest first, each with its computed status.
// PRE: at least one of DancerID and BatchID is set
// INVARIANT: stored passes are never written
func GetPasses(ctx context.Context, query GetPassesQuery, deps GetPassesDeps) ([]PassView, error) {
	passes, err := deps.PassStore.List(ctx, pass.ListFilter{DancerID: query.DancerID, BatchID: query.BatchID})
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	now := clock(deps.Now)

	views := make([]PassView, 0, len(passes))
	for _, p := range passes {
		views = append(views, PassView{Record: p.Record(), ComputedStatus: domainPass.Resolve(p, s, now)})
	}
	return views, nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
