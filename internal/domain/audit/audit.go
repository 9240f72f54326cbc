package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action names the business operation that was recorded.
type Action string

const (
	ActionCreatePass     Action = "create_pass"
	ActionRenewPass      Action = "renew_pass"
	ActionMarkAttendance Action = "mark_attendance"
	ActionUpdateSettings Action = "update_settings"
	ActionCreateSession  Action = "create_session"
	ActionCreateDancer   Action = "create_dancer"
	ActionCreateBatch    Action = "create_batch"
	ActionLogin          Action = "login"
	ActionCreateAccount  Action = "create_account"
)

// Entity types referenced by events.
const (
	EntityPass       = "pass"
	EntityAttendance = "attendance"
	EntitySettings   = "settings"
	EntitySession    = "session"
	EntityDancer     = "dancer"
	EntityBatch      = "batch"
	EntityAccount    = "account"
)

// Event represents a single audit log entry.
type Event struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActorID    string         `json:"actor_user_id"`
	ActorName  string         `json:"actor_name,omitempty"`
	Action     Action         `json:"action_type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Metadata   map[string]any `json:"metadata"`
}

// NewEvent creates a new audit event stamped at now.
// PRE: actorID and action are non-empty
// POST: Returns an Event with a fresh ID and empty metadata
func NewEvent(now time.Time, actorID string, action Action, entityType, entityID string) Event {
	return Event{
		ID:         uuid.New().String(),
		Timestamp:  now.UTC(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   map[string]any{},
	}
}

// WithMetadata returns the event with key set in its metadata.
func (e Event) WithMetadata(key string, value any) Event {
	m := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		m[k] = v
	}
	m[key] = value
	e.Metadata = m
	return e
}

// MetadataJSON encodes the metadata for storage.
func (e Event) MetadataJSON() (string, error) {
	if len(e.Metadata) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
