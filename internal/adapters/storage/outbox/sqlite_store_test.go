package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"regulars/internal/adapters/storage/storagetest"
	domain "regulars/internal/domain/outbox"
)

func TestListPendingAndFailed(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	statuses := []string{domain.StatusPending, domain.StatusRetrying, domain.StatusDone, domain.StatusFailed, domain.StatusAbandoned}
	for i, status := range statuses {
		e, err := domain.NewEntry(domain.ActionTypePassAlert, `{"to":["owner@studio.test"]}`, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("NewEntry: %v", err)
		}
		e.ID = status
		e.Status = status
		e.LastAttemptedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", status, err)
		}
	}

	pending, err := store.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != domain.StatusPending || pending[1].ID != domain.StatusRetrying {
		t.Errorf("pending = %+v", ids(pending))
	}

	failed, err := store.ListFailed(ctx, 10)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(failed) != 2 || failed[0].ID != domain.StatusAbandoned {
		t.Errorf("failed = %v, want newest attempt first", ids(failed))
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(missing) err = %v, want ErrNotFound", err)
	}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
