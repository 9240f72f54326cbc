package pass

import (
	"errors"
	"time"

	"regulars/internal/domain/settings"
)

// Monthly grants unlimited attendance inside a time window. Dates are kept as
// stored ISO-8601 strings so a malformed value can still be resolved.
type Monthly struct {
	StartDate string
	EndDate   string
}

// Type implements Terms.
func (m Monthly) Type() Type { return TypeMonthly }

// Status implements Terms.
// An unparseable end date falls back to a lexicographic comparison for expiry
// and is never reported as expiring soon.
func (m Monthly) Status(s settings.Settings, now time.Time) Status {
	end, err := ParseTimestamp(m.EndDate)
	if err != nil {
		if now.UTC().Format(time.RFC3339Nano) > m.EndDate {
			return StatusExpired
		}
		return StatusActive
	}
	if now.After(end) {
		return StatusExpired
	}
	if daysUntil(now, end) <= s.MonthlyExpiryWarningDays {
		return StatusExpiringSoon
	}
	return StatusActive
}

// Consume implements Terms. Monthly passes are not decremented by use.
func (m Monthly) Consume() (Terms, error) { return m, nil }

// Reverse implements Terms.
func (m Monthly) Reverse() (Terms, error) { return m, nil }

// Validate implements Terms.
func (m Monthly) Validate() error {
	if m.EndDate == "" {
		return errors.New("monthly pass requires an end date")
	}
	return nil
}

// ClassPack is a fixed number of classes.
// INVARIANT: 0 <= RemainingClasses <= TotalClasses
type ClassPack struct {
	TotalClasses     int
	RemainingClasses int
	StartDate        string
	EndDate          string
}

// Type implements Terms.
func (c ClassPack) Type() Type { return TypeClassPack }

// Status implements Terms.
func (c ClassPack) Status(s settings.Settings, _ time.Time) Status {
	switch {
	case c.RemainingClasses <= 0:
		return StatusExpired
	case c.RemainingClasses <= s.ClassPackExpiryWarningRemaining:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// Consume implements Terms.
// POST: RemainingClasses decremented by one, or ErrExhausted when none remain
func (c ClassPack) Consume() (Terms, error) {
	if c.RemainingClasses <= 0 {
		return c, ErrExhausted
	}
	c.RemainingClasses--
	return c, nil
}

// Reverse implements Terms.
// POST: RemainingClasses incremented by one, or ErrFullyCredited at the total
func (c ClassPack) Reverse() (Terms, error) {
	if c.RemainingClasses >= c.TotalClasses {
		return c, ErrFullyCredited
	}
	c.RemainingClasses++
	return c, nil
}

// Validate implements Terms.
func (c ClassPack) Validate() error {
	if c.TotalClasses <= 0 {
		return errors.New("class pack requires at least one class")
	}
	if c.RemainingClasses < 0 || c.RemainingClasses > c.TotalClasses {
		return errors.New("remaining classes must be between 0 and total classes")
	}
	return nil
}

// DropIn is a single-use pass. Its stored status is the only source of truth.
type DropIn struct {
	State     Status // StatusUnused or StatusUsed
	ValidDate string // YYYY-MM-DD
	SessionID string // optional
}

// Type implements Terms.
func (d DropIn) Type() Type { return TypeDropIn }

// Status implements Terms by returning the stored status verbatim.
func (d DropIn) Status(settings.Settings, time.Time) Status { return d.State }

// Consume implements Terms.
func (d DropIn) Consume() (Terms, error) {
	if d.State != StatusUnused {
		return d, ErrAlreadyUsed
	}
	d.State = StatusUsed
	return d, nil
}

// Reverse implements Terms.
func (d DropIn) Reverse() (Terms, error) {
	if d.State != StatusUsed {
		return d, ErrNotConsumed
	}
	d.State = StatusUnused
	return d, nil
}

// Validate implements Terms.
func (d DropIn) Validate() error {
	if d.State != StatusUnused && d.State != StatusUsed {
		return errors.New("drop-in status must be unused or used")
	}
	return nil
}

// daysUntil returns the number of whole days between now and end.
// PRE: end is not before now
func daysUntil(now, end time.Time) int {
	return int(end.Sub(now) / (24 * time.Hour))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 forms stored on passes. Values without
// a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
