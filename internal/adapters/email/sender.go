// Package email delivers staff alert emails through an external provider.
package email

import (
	"context"
	"errors"
	"time"
)

// Errors returned for a request a provider would reject.
var (
	ErrNoRecipients = errors.New("email has no recipients")
	ErrNoSubject    = errors.New("email has no subject")
)

// SendRequest is one outgoing email.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
	Text    string            // optional plain-text alternative
	Tags    map[string]string // provider tags, e.g. category=pass_alert
}

// Validate reports whether req can be handed to a provider.
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	if r.Subject == "" {
		return ErrNoSubject
	}
	return nil
}

// SendResult is the provider's acceptance of a request.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender hands emails to a provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
