package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"regulars/internal/adapters/storage/storagetest"
	domain "regulars/internal/domain/attendance"
)

func TestUpsert_KeepsOneRecordPerSessionDancer(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	passID := "p1"

	first, err := store.Upsert(ctx, domain.Record{
		ID: "a1", SessionID: "s1", DancerID: "d1", Status: domain.StatusPresent,
		MarkedBy: "i1", Timestamp: now, PassID: &passID,
	})
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second, err := store.Upsert(ctx, domain.Record{
		ID: "a2", SessionID: "s1", DancerID: "d1", Status: domain.StatusAbsent,
		MarkedBy: "i2", Timestamp: now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID = %s, want existing %s", second.ID, first.ID)
	}

	got, err := store.GetBySessionDancer(ctx, "s1", "d1")
	if err != nil {
		t.Fatalf("GetBySessionDancer: %v", err)
	}
	if got.Status != domain.StatusAbsent || got.MarkedBy != "i2" {
		t.Errorf("got %+v, want absent by i2", got)
	}
	if got.PassID != nil {
		t.Errorf("pass_id = %v, want nil", *got.PassID)
	}

	all, err := store.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("records = %d, want 1", len(all))
	}
}

func TestGetBySessionDancer_NotFound(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	_, err := store.GetBySessionDancer(context.Background(), "s1", "d1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCountBySessions(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	marks := []domain.Record{
		{ID: "1", SessionID: "s1", DancerID: "d1", Status: domain.StatusPresent},
		{ID: "2", SessionID: "s1", DancerID: "d2", Status: domain.StatusAbsent},
		{ID: "3", SessionID: "s1", DancerID: "d3", Status: "late"},
		{ID: "4", SessionID: "s2", DancerID: "d1", Status: domain.StatusPresent},
	}
	for _, m := range marks {
		m.MarkedBy, m.Timestamp = "i1", now
		if _, err := store.Upsert(ctx, m); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := store.CountBySessions(ctx, []string{"s1", "s2", "s3"})
	if err != nil {
		t.Fatalf("CountBySessions: %v", err)
	}
	if got["s1"] != (domain.Counts{Total: 3, Present: 1, Absent: 1}) {
		t.Errorf("s1 = %+v", got["s1"])
	}
	if got["s2"] != (domain.Counts{Total: 1, Present: 1}) {
		t.Errorf("s2 = %+v", got["s2"])
	}
	if _, ok := got["s3"]; ok {
		t.Error("s3 has no marks and should be absent")
	}
}
