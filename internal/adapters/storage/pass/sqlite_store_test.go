package pass

import (
	"context"
	"errors"
	"testing"
	"time"

	"regulars/internal/adapters/storage/storagetest"
	domain "regulars/internal/domain/pass"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func classPack(id string, created time.Time, total, remaining int) domain.Pass {
	return domain.Pass{
		ID: id, DancerID: "d1", BatchID: "b1", CreatedAt: created, CreatedBy: "admin",
		Terms: domain.ClassPack{TotalClasses: total, RemainingClasses: remaining},
	}
}

func TestInsertAndGetByID(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	want := classPack("p1", base, 8, 5)
	if err := store.Insert(ctx, want); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	cp, ok := got.Terms.(domain.ClassPack)
	if !ok {
		t.Fatalf("terms = %T, want ClassPack", got.Terms)
	}
	if cp.TotalClasses != 8 || cp.RemainingClasses != 5 {
		t.Errorf("balance = %d/%d, want 5/8", cp.RemainingClasses, cp.TotalClasses)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, base)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestListByDancerBatch_NewestFirst(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	older := classPack("p1", base, 8, 0)
	newer := classPack("p2", base.Add(24*time.Hour), 8, 3)
	other := classPack("p3", base, 8, 3)
	other.BatchID = "b2"
	monthly := domain.Pass{ID: "p4", DancerID: "d1", BatchID: "b1", CreatedAt: base.Add(time.Hour), CreatedBy: "admin",
		Terms: domain.Monthly{StartDate: "2026-05-01", EndDate: "2026-05-31"}}
	for _, p := range []domain.Pass{older, newer, other, monthly} {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %s: %v", p.ID, err)
		}
	}

	passes, err := store.ListByDancerBatch(ctx, "d1", "b1")
	if err != nil {
		t.Fatalf("ListByDancerBatch: %v", err)
	}
	var ids []string
	for _, p := range passes {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "p2" || ids[1] != "p4" || ids[2] != "p1" {
		t.Errorf("ids = %v, want [p2 p4 p1]", ids)
	}

	byBatches, err := store.List(ctx, ListFilter{BatchIDs: []string{"b2"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byBatches) != 1 || byBatches[0].ID != "p3" {
		t.Errorf("List(b2) = %v, want [p3]", byBatches)
	}
}

func TestUpdateTerms_CompareAndSwap(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	p := classPack("p1", base, 8, 2)
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	next, _ := p.Terms.Consume()
	if err := store.UpdateTerms(ctx, "p1", p.Terms, next); err != nil {
		t.Fatalf("first UpdateTerms: %v", err)
	}

	// A second writer holding the original snapshot loses.
	err := store.UpdateTerms(ctx, "p1", p.Terms, next)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale UpdateTerms = %v, want ErrConflict", err)
	}

	got, _ := store.GetByID(ctx, "p1")
	if rem := got.Terms.(domain.ClassPack).RemainingClasses; rem != 1 {
		t.Errorf("remaining = %d, want 1", rem)
	}

	if err := store.UpdateTerms(ctx, "missing", p.Terms, next); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateTerms(missing) = %v, want ErrNotFound", err)
	}
}

func TestUpdateTerms_DropIn(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	p := domain.Pass{ID: "p1", DancerID: "d1", BatchID: "b1", CreatedAt: base, CreatedBy: "admin",
		Terms: domain.DropIn{State: domain.StatusUnused, ValidDate: "2026-05-01"}}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	used, err := p.Terms.Consume()
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := store.UpdateTerms(ctx, "p1", p.Terms, used); err != nil {
		t.Fatalf("UpdateTerms: %v", err)
	}
	got, _ := store.GetByID(ctx, "p1")
	if s := got.Terms.(domain.DropIn).State; s != domain.StatusUsed {
		t.Errorf("status = %s, want used", s)
	}
}

func TestDropInWithNullStatusIsConsumable(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	_, err := db.Exec(`INSERT INTO pass (id, dancer_id, batch_id, type, valid_date, created_at, created_by)
		VALUES ('p1', 'd1', 'b1', 'drop_in', '2026-05-01', '2026-05-01T09:00:00Z', 'admin')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s := got.Terms.(domain.DropIn).State; s != domain.StatusUnused {
		t.Fatalf("state = %q, want unused", s)
	}
	used, err := got.Terms.Consume()
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := store.UpdateTerms(ctx, "p1", got.Terms, used); err != nil {
		t.Fatalf("UpdateTerms: %v", err)
	}
	after, _ := store.GetByID(ctx, "p1")
	if s := after.Terms.(domain.DropIn).State; s != domain.StatusUsed {
		t.Errorf("state after consume = %s, want used", s)
	}
	if err := store.UpdateTerms(ctx, "p1", got.Terms, used); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second UpdateTerms = %v, want ErrConflict", err)
	}
}

func TestUnknownTypeSurvivesRead(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db)
	_, err := db.Exec(`INSERT INTO pass (id, dancer_id, batch_id, type, created_at, created_by)
		VALUES ('p1', 'd1', 'b1', 'gift_card', '2026-05-01T09:00:00Z', 'admin')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := store.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Terms != nil {
		t.Errorf("terms = %#v, want nil for unknown type", got.Terms)
	}
}
