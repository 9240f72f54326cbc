package audit_test

import (
	"strings"
	"testing"
	"time"

	"regulars/internal/domain/audit"
)

func TestNewEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e := audit.NewEvent(now, "u1", audit.ActionCreatePass, audit.EntityPass, "p1")
	if e.ID == "" {
		t.Error("ID not generated")
	}
	if !e.Timestamp.Equal(now) || e.ActorID != "u1" || e.EntityID != "p1" {
		t.Errorf("unexpected event: %+v", e)
	}
	other := audit.NewEvent(now, "u1", audit.ActionCreatePass, audit.EntityPass, "p1")
	if other.ID == e.ID {
		t.Error("IDs should be unique")
	}
}

func TestWithMetadataDoesNotShareMaps(t *testing.T) {
	base := audit.NewEvent(time.Now(), "u1", audit.ActionMarkAttendance, audit.EntityAttendance, "a1")
	a := base.WithMetadata("status", "present")
	b := base.WithMetadata("status", "absent")
	if a.Metadata["status"] != "present" || b.Metadata["status"] != "absent" {
		t.Errorf("metadata leaked between copies: %v %v", a.Metadata, b.Metadata)
	}
	if len(base.Metadata) != 0 {
		t.Error("base metadata mutated")
	}
	js, err := a.MetadataJSON()
	if err != nil || !strings.Contains(js, `"status":"present"`) {
		t.Errorf("MetadataJSON = %s, %v", js, err)
	}
}
