package projections

import (
	"context"
	"fmt"
	"time"

	"regulars/internal/adapters/storage/pass"
	domainBatch "regulars/internal/domain/batch"
	domainPass "regulars/internal/domain/pass"
	domainSettings "regulars/internal/domain/settings"
)

// Notification flags one pass that is expiring soon or expired.
type Notification struct {
	PassID     string            `json:"id"`
	Status     domainPass.Status `json:"type"`
	PassType   domainPass.Type   `json:"pass_type"`
	DancerID   string            `json:"dancer_id"`
	DancerName string            `json:"dancer_name"`
	BatchID    string            `json:"batch_id"`
	BatchName  string            `json:"batch_name"`
	Message    string            `json:"message"`
}

// GetNotificationsDeps holds dependencies for the notifications projection.
type GetNotificationsDeps struct {
	BatchStore    BatchStore
	PassStore     PassStore
	DancerStore   DancerStore
	SettingsStore SettingsStore
	Now           func() time.Time
}

// GetNotifications lists every pass in the viewer's active batches that needs
// attention, ordered as the store returns passes (newest first).
func GetNotifications(ctx context.Context, viewer Viewer, deps GetNotificationsDeps) ([]Notification, error) {
	batches, err := visibleBatches(ctx, deps.BatchStore, viewer)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	if len(batches) == 0 {
		return []Notification{}, nil
	}
	byID := make(map[string]domainBatch.Batch, len(batches))
	ids := make([]string, 0, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	passes, err := deps.PassStore.List(ctx, pass.ListFilter{BatchIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	s, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	now := clock(deps.Now)

	flagged, dancerIDs := needingAttention(passes, s, now)
	dancers, err := deps.DancerStore.GetByIDs(ctx, dancerIDs)
	if err != nil {
		return nil, fmt.Errorf("load dancers: %w", err)
	}

	out := make([]Notification, 0, len(flagged))
	for _, f := range flagged {
		d, ok := dancers[f.pass.DancerID]
		if !ok {
			continue
		}
		out = append(out, Notification{
			PassID:     f.pass.ID,
			Status:     f.status,
			PassType:   f.pass.Type(),
			DancerID:   d.ID,
			DancerName: d.FullName,
			BatchID:    f.pass.BatchID,
			BatchName:  byID[f.pass.BatchID].BatchName,
			Message:    notificationMessage(f.pass, f.status),
		})
	}
	return out, nil
}

type flaggedPass struct {
	pass   domainPass.Pass
	status domainPass.Status
}

// needingAttention keeps passes resolving to expiring_soon or expired and
// returns the distinct dancer ids they belong to.
func needingAttention(passes []domainPass.Pass, s domainSettings.Settings, now time.Time) ([]flaggedPass, []string) {
	var flagged []flaggedPass
	var dancerIDs []string
	seen := make(map[string]bool)
	for _, p := range passes {
		status := domainPass.Resolve(p, s, now)
		if status != domainPass.StatusExpiringSoon && status != domainPass.StatusExpired {
			continue
		}
		flagged = append(flagged, flaggedPass{pass: p, status: status})
		if !seen[p.DancerID] {
			seen[p.DancerID] = true
			dancerIDs = append(dancerIDs, p.DancerID)
		}
	}
	return flagged, dancerIDs
}

func notificationMessage(p domainPass.Pass, status domainPass.Status) string {
	switch t := p.Terms.(type) {
	case domainPass.Monthly:
		word := "expired"
		if status == domainPass.StatusExpiringSoon {
			word = "expiring soon"
		}
		return fmt.Sprintf("Monthly pass %s (ends %s)", word, dateOnly(t.EndDate))
	case domainPass.ClassPack:
		if status == domainPass.StatusExpiringSoon {
			return fmt.Sprintf("Class pack: %d classes remaining", t.RemainingClasses)
		}
		return "Class pack expired"
	}
	return ""
}

func dateOnly(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
