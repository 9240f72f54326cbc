package email

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NoopSender accepts and logs emails without delivering them. It stands in
// for the provider when no API key is configured.
type NoopSender struct {
	now  func() time.Time
	sent atomic.Int64
}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{now: time.Now}
}

// Send implements Sender.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	s.sent.Add(1)
	id := "noop-" + uuid.NewString()
	slog.Info("email_event", "event", "noop_send", "message_id", id, "to", req.To, "subject", req.Subject, "tags", req.Tags)
	return SendResult{MessageID: id, SentAt: s.now()}, nil
}

// Sent returns how many emails were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
