package settings_test

import (
	"testing"

	"regulars/internal/domain/settings"
)

func TestDefaults(t *testing.T) {
	d := settings.Defaults()
	if d.MonthlyExpiryWarningDays != 5 || d.ClassPackExpiryWarningRemaining != 2 {
		t.Errorf("Defaults() = %+v, want (5, 2)", d)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       settings.Settings
		wantErr bool
	}{
		{"defaults", settings.Defaults(), false},
		{"zeros", settings.Settings{}, false},
		{"negative days", settings.Settings{MonthlyExpiryWarningDays: -1}, true},
		{"negative remaining", settings.Settings{ClassPackExpiryWarningRemaining: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	days := 10
	p := settings.Patch{MonthlyExpiryWarningDays: &days}
	if p.IsEmpty() {
		t.Fatal("patch with one field should not be empty")
	}
	got := p.Apply(settings.Defaults())
	if got.MonthlyExpiryWarningDays != 10 {
		t.Errorf("MonthlyExpiryWarningDays = %d, want 10", got.MonthlyExpiryWarningDays)
	}
	if got.ClassPackExpiryWarningRemaining != 2 {
		t.Errorf("ClassPackExpiryWarningRemaining = %d, want unchanged 2", got.ClassPackExpiryWarningRemaining)
	}
	if !(settings.Patch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
}
