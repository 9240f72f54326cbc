package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/settings"
)

// SettingsStore reads and replaces the global settings.
type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) error
}

// UpdateSettingsInput carries a partial settings update.
type UpdateSettingsInput struct {
	Patch   settings.Patch
	ActorID string `validate:"required"`
}

// UpdateSettingsDeps holds dependencies for UpdateSettings.
type UpdateSettingsDeps struct {
	Settings SettingsStore
	Audit    AuditSink
	Now      func() time.Time
}

// ExecuteUpdateSettings applies an admin's partial update to the thresholds.
// PRE: Patch changes at least one field, and no value is negative
// POST: Settings saved; audit records before and after
func ExecuteUpdateSettings(ctx context.Context, input UpdateSettingsInput, deps UpdateSettingsDeps) (settings.Settings, error) {
	if input.Patch.IsEmpty() {
		return settings.Settings{}, invalid("nothing to update")
	}
	if err := validateStruct(input); err != nil {
		return settings.Settings{}, err
	}
	before, err := deps.Settings.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	after := input.Patch.Apply(before)
	if err := after.Validate(); err != nil {
		return settings.Settings{}, invalid("%s", err.Error())
	}
	if err := deps.Settings.Save(ctx, after); err != nil {
		return settings.Settings{}, err
	}

	deps.Audit.Record(audit.NewEvent(clock(deps.Now), input.ActorID, audit.ActionUpdateSettings, audit.EntitySettings, "global").
		WithMetadata("before", before).
		WithMetadata("after", after))
	slog.Info("settings_event", "event", "settings_updated",
		"monthly_expiry_warning_days", after.MonthlyExpiryWarningDays,
		"class_pack_expiry_warning_remaining", after.ClassPackExpiryWarningRemaining)
	return after, nil
}
