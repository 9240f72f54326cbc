package projections

import (
	"context"
	"fmt"
	"time"

	"regulars/internal/adapters/storage/batch"
	"regulars/internal/adapters/storage/pass"
	domainPass "regulars/internal/domain/pass"
)

const unknownName = "Unknown"

// ExpiringEntry is one pass in the expiring report.
type ExpiringEntry struct {
	PassView
	DancerName string `json:"dancer_name"`
	BatchName  string `json:"batch_name"`
}

// ExpiringReport splits attention-needing passes by status.
type ExpiringReport struct {
	Expiring []ExpiringEntry `json:"expiring"`
	Expired  []ExpiringEntry `json:"expired"`
}

// GetExpiringReportDeps holds dependencies for the expiring report.
type GetExpiringReportDeps struct {
	PassStore     PassStore
	BatchStore    BatchStore
	DancerStore   DancerStore
	SettingsStore SettingsStore
	Now           func() time.Time
}

// GetExpiringReport lists every pass, across all batches, that is expiring
// soon or expired. Names that cannot be resolved are reported as "Unknown".
func GetExpiringReport(ctx context.Context, deps GetExpiringReportDeps) (ExpiringReport, error) {
	passes, err := deps.PassStore.List(ctx, pass.ListFilter{})
	if err != nil {
		return ExpiringReport{}, fmt.Errorf("list passes: %w", err)
	}
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return ExpiringReport{}, fmt.Errorf("load settings: %w", err)
	}
	flagged, dancerIDs := needingAttention(passes, s, clock(deps.Now))

	dancers, err := deps.DancerStore.GetByIDs(ctx, dancerIDs)
	if err != nil {
		return ExpiringReport{}, fmt.Errorf("load dancers: %w", err)
	}
	batches, err := deps.BatchStore.List(ctx, batch.ListFilter{})
	if err != nil {
		return ExpiringReport{}, fmt.Errorf("list batches: %w", err)
	}
	batchNames := make(map[string]string, len(batches))
	for _, b := range batches {
		batchNames[b.ID] = b.BatchName
	}

	report := ExpiringReport{Expiring: []ExpiringEntry{}, Expired: []ExpiringEntry{}}
	for _, f := range flagged {
		entry := ExpiringEntry{
			PassView:   PassView{Record: f.pass.Record(), ComputedStatus: f.status},
			DancerName: unknownName,
			BatchName:  unknownName,
		}
		if d, ok := dancers[f.pass.DancerID]; ok {
			entry.DancerName = d.FullName
		}
		if name, ok := batchNames[f.pass.BatchID]; ok {
			entry.BatchName = name
		}
		if f.status == domainPass.StatusExpiringSoon {
			report.Expiring = append(report.Expiring, entry)
		} else {
			report.Expired = append(report.Expired, entry)
		}
	}
	return report, nil
}
