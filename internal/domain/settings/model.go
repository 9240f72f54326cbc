package settings

import "errors"

// Default thresholds applied when no settings row has been stored yet.
const (
	DefaultMonthlyExpiryWarningDays       = 5
	DefaultClassPackExpiryWarningRemaining = 2
)

// GlobalID is the key of the singleton settings row.
const GlobalID = "global"

var ErrNegativeThreshold = errors.New("warning thresholds must be zero or greater")

// Settings holds the studio-wide warning thresholds used when resolving pass status.
type Settings struct {
	MonthlyExpiryWarningDays        int `json:"monthly_expiry_warning_days"`
	ClassPackExpiryWarningRemaining int `json:"class_pack_expiry_warning_remaining"`
}

// Defaults returns the thresholds used on first read.
func Defaults() Settings {
	return Settings{
		MonthlyExpiryWarningDays:        DefaultMonthlyExpiryWarningDays,
		ClassPackExpiryWarningRemaining: DefaultClassPackExpiryWarningRemaining,
	}
}

// Validate checks that both thresholds are non-negative.
// PRE: Settings is initialized
// POST: Returns ErrNegativeThreshold if either threshold is below zero
func (s Settings) Validate() error {
	if s.MonthlyExpiryWarningDays < 0 || s.ClassPackExpiryWarningRemaining < 0 {
		return ErrNegativeThreshold
	}
	return nil
}

// Patch carries a partial settings update. Nil fields are left unchanged.
type Patch struct {
	MonthlyExpiryWarningDays        *int `json:"monthly_expiry_warning_days" validate:"omitempty,min=0"`
	ClassPackExpiryWarningRemaining *int `json:"class_pack_expiry_warning_remaining" validate:"omitempty,min=0"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.MonthlyExpiryWarningDays == nil && p.ClassPackExpiryWarningRemaining == nil
}

// Apply returns s with the patch's non-nil fields applied.
// INVARIANT: s is not mutated
func (p Patch) Apply(s Settings) Settings {
	if p.MonthlyExpiryWarningDays != nil {
		s.MonthlyExpiryWarningDays = *p.MonthlyExpiryWarningDays
	}
	if p.ClassPackExpiryWarningRemaining != nil {
		s.ClassPackExpiryWarningRemaining = *p.ClassPackExpiryWarningRemaining
	}
	return s
}
