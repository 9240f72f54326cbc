package settings

import (
	"context"
	"testing"

	"regulars/internal/adapters/storage/storagetest"
	domain "regulars/internal/domain/settings"
)

func TestGet_CreatesDefaultsOnFirstRead(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != domain.Defaults() {
		t.Errorf("Get = %+v, want defaults %+v", got, domain.Defaults())
	}
	var rows int
	db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows)
	if rows != 1 {
		t.Errorf("settings rows = %d, want 1", rows)
	}
}

func TestSave_ThenGet(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	want := domain.Settings{MonthlyExpiryWarningDays: 2, ClassPackExpiryWarningRemaining: 0}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}
