package orchestrators

import (
	"context"
	"testing"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/settings"
)

func intPtr(v int) *int { return &v }

func TestExecuteUpdateSettings_Partial(t *testing.T) {
	store := &fakeSettings{value: settings.Defaults()}
	rec := &recordingAudit{}

	got, err := ExecuteUpdateSettings(context.Background(), UpdateSettingsInput{
		Patch:   settings.Patch{MonthlyExpiryWarningDays: intPtr(7)},
		ActorID: "admin",
	}, UpdateSettingsDeps{Settings: store, Audit: rec, Now: testNow})
	if err != nil {
		t.Fatal(err)
	}
	if got.MonthlyExpiryWarningDays != 7 || got.ClassPackExpiryWarningRemaining != settings.DefaultClassPackExpiryWarningRemaining {
		t.Errorf("got %+v", got)
	}
	if store.value != got {
		t.Errorf("stored %+v", store.value)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionUpdateSettings {
		t.Fatalf("audit = %v", rec.actions())
	}
	if before := rec.events[0].Metadata["before"].(settings.Settings); before != settings.Defaults() {
		t.Errorf("before = %+v", before)
	}
}

func TestExecuteUpdateSettings_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		patch settings.Patch
	}{
		{"empty", settings.Patch{}},
		{"negative days", settings.Patch{MonthlyExpiryWarningDays: intPtr(-1)}},
		{"negative remaining", settings.Patch{ClassPackExpiryWarningRemaining: intPtr(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeSettings{value: settings.Defaults()}
			_, err := ExecuteUpdateSettings(context.Background(), UpdateSettingsInput{Patch: tt.patch, ActorID: "admin"},
				UpdateSettingsDeps{Settings: store, Audit: &recordingAudit{}, Now: testNow})
			if !IsValidation(err) {
				t.Errorf("err = %v, want validation", err)
			}
			if store.saves != 0 {
				t.Error("settings must not be saved")
			}
		})
	}
}
