package batch

import (
	"context"
	"errors"
	"testing"

	"regulars/internal/adapters/storage/storagetest"
	domain "regulars/internal/domain/batch"
)

func TestList_FiltersByInstructor(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	batches := []domain.Batch{
		{ID: "b1", BatchName: "Salsa Beginners", InstructorIDs: []string{"i1"}, Active: true},
		{ID: "b2", BatchName: "Bachata", InstructorIDs: []string{"i2", "i1"}, Active: true},
		{ID: "b3", BatchName: "Contemporary", Active: false},
	}
	for _, b := range batches {
		if err := store.Save(ctx, b); err != nil {
			t.Fatalf("Save %s: %v", b.ID, err)
		}
	}

	mine, err := store.List(ctx, ListFilter{InstructorID: "i1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "b2" || mine[1].ID != "b1" {
		t.Errorf("List(i1) = %+v, want [b2 b1]", mine)
	}

	active, err := store.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	got, err := store.GetByID(ctx, "b3")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.InstructorIDs) != 0 || got.Active {
		t.Errorf("b3 = %+v", got)
	}
	if _, err := store.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(nope) = %v, want ErrNotFound", err)
	}
}
