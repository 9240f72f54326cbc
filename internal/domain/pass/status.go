package pass

import (
	"fmt"
	"sort"
	"time"

	"regulars/internal/domain/settings"
)

// Warning messages attached to a consumption.
const (
	WarningNoActivePass         = "No active pass"
	WarningClassPackExhausted   = "Class pack exhausted"
	WarningMonthlyExpiringSoon  = "Monthly pass expiring soon"
	WarningMonthlyExpired       = "Monthly pass expired"
	warningClassPackLowTemplate = "Class pack low: %d remaining"
)

// Resolve derives the status of p at now. It is pure: the pass is never
// mutated and the same inputs always give the same status.
func Resolve(p Pass, s settings.Settings, now time.Time) Status {
	if p.Terms == nil {
		return StatusUnknown
	}
	return p.Terms.Status(s, now)
}

// Eligible reports whether p may cover a new present mark.
func Eligible(p Pass, s settings.Settings, now time.Time) bool {
	switch Resolve(p, s, now) {
	case StatusActive, StatusExpiringSoon:
		return true
	}
	d, ok := p.Terms.(DropIn)
	return ok && d.State == StatusUnused
}

// Select picks the pass to charge from a dancer's passes for one batch:
// newest first by creation time, the first eligible one wins.
// INVARIANT: passes is not reordered
func Select(passes []Pass, s settings.Settings, now time.Time) (Pass, bool) {
	ordered := make([]Pass, len(passes))
	copy(ordered, passes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	for _, p := range ordered {
		if Eligible(p, s, now) {
			return p, true
		}
	}
	return Pass{}, false
}

// ConsumptionWarning returns the warning to surface after a consumption that
// moved a pass from before to after, or "" when there is nothing to report.
// Monthly warnings are based on the status before the use.
func ConsumptionWarning(before, after Terms, s settings.Settings, now time.Time) string {
	switch v := after.(type) {
	case ClassPack:
		if v.RemainingClasses <= 0 {
			return WarningClassPackExhausted
		}
		if v.RemainingClasses <= s.ClassPackExpiryWarningRemaining {
			return fmt.Sprintf(warningClassPackLowTemplate, v.RemainingClasses)
		}
	case Monthly:
		switch before.Status(s, now) {
		case StatusExpiringSoon:
			return WarningMonthlyExpiringSoon
		case StatusExpired:
			return WarningMonthlyExpired
		}
	}
	return ""
}
