package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"regulars/internal/adapters/email"
	"regulars/internal/domain/outbox"
)

// PassAlertPayload is the outbox payload of a pass alert email.
type PassAlertPayload struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Markdown string   `json:"markdown"`
}

// defaultAlertSubject is used when a payload carries no subject.
const defaultAlertSubject = "Pass alerts"

var errPassAlertNoRecipients = errors.New("pass alert has no recipients")

// PassAlertExecutor delivers outbox pass alerts by email.
type PassAlertExecutor struct {
	Sender email.Sender
	From   string
}

// Execute renders the alert's markdown and hands it to the sender.
// POST: Returns the provider message id
func (e *PassAlertExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var alert PassAlertPayload
	if err := json.Unmarshal([]byte(payload), &alert); err != nil {
		return "", fmt.Errorf("decode pass alert: %w", err)
	}
	if len(alert.To) == 0 {
		return "", errPassAlertNoRecipients
	}
	if alert.Subject == "" {
		alert.Subject = defaultAlertSubject
	}
	html, err := email.RenderMarkdown(alert.Markdown)
	if err != nil {
		return "", fmt.Errorf("render pass alert: %w", err)
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{
		To:      alert.To,
		From:    e.From,
		Subject: alert.Subject,
		HTML:    html,
		Text:    alert.Markdown,
		Tags:    map[string]string{"category": outbox.ActionTypePassAlert},
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// enqueuePassAlert queues one digest email listing a submission's warnings.
// Failures are logged; attendance has already been recorded.
func enqueuePassAlert(ctx context.Context, refs bulkRefs, warnings []AttendanceWarning, deps MarkAttendanceDeps, now time.Time) {
	if len(warnings) == 0 || len(deps.AlertTo) == 0 || deps.Outbox == nil {
		return
	}
	payload, err := json.Marshal(PassAlertPayload{
		To:       deps.AlertTo,
		Subject:  fmt.Sprintf("Pass alerts: %s on %s", refs.Batch.BatchName, refs.Session.Date),
		Markdown: passAlertMarkdown(refs, warnings),
	})
	if err != nil {
		slog.Error("pass_alert_failed", "session_id", refs.Session.ID, "error", err.Error())
		return
	}
	entry, err := outbox.NewEntry(outbox.ActionTypePassAlert, string(payload), now)
	if err != nil {
		slog.Error("pass_alert_failed", "session_id", refs.Session.ID, "error", err.Error())
		return
	}
	if err := deps.Outbox.Save(ctx, entry); err != nil {
		slog.Error("pass_alert_failed", "session_id", refs.Session.ID, "error", err.Error())
		return
	}
	slog.Info("pass_alert_queued", "entry_id", entry.ID, "session_id", refs.Session.ID, "warnings", len(warnings))
}

func passAlertMarkdown(refs bulkRefs, warnings []AttendanceWarning) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** session on %s\n\n", refs.Batch.BatchName, refs.Session.Date)
	for _, w := range warnings {
		name := w.DancerID
		if d, ok := refs.Dancers[w.DancerID]; ok && d.FullName != "" {
			name = d.FullName
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, w.Message)
	}
	return b.String()
}
