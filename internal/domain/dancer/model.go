package dancer

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("dancer not found")
	ErrEmptyName = errors.New("dancer name cannot be empty")
)

// Dancer holds state for the Dancer concept.
type Dancer struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	Notes       string    `json:"notes"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the Dancer has valid data.
// PRE: Dancer struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (d *Dancer) Validate() error {
	if strings.TrimSpace(d.FullName) == "" {
		return ErrEmptyName
	}
	return nil
}
