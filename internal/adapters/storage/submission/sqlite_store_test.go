package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"regulars/internal/adapters/storage/storagetest"
)

func TestSave_FirstWriterWins(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before save = %v, want ErrNotFound", err)
	}
	if err := store.Save(ctx, Submission{Key: "k1", SessionID: "s1", Response: []byte(`{"a":1}`), CreatedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	err := store.Save(ctx, Submission{Key: "k1", SessionID: "s1", Response: []byte(`{"a":2}`), CreatedAt: now})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Save = %v, want ErrDuplicate", err)
	}
	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Response) != `{"a":1}` {
		t.Errorf("response = %s, want first write", got.Response)
	}
}
