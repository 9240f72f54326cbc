package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
	"regulars/internal/domain/pass"
)

func newCreatePassDeps() (CreatePassDeps, *fakePassStore, *recordingAudit) {
	store := newFakePassStore()
	rec := &recordingAudit{}
	return CreatePassDeps{
		Passes:  store,
		Dancers: fakeDancers{"d1": {ID: "d1", FullName: "Asha Rao", Active: true}},
		Batches: fakeBatches{"b1": {ID: "b1", BatchName: "Salsa Basics", Active: true}},
		Audit:   rec,
		Now:     testNow,
	}, store, rec
}

func TestExecuteCreatePass_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		typ   pass.Type
		check func(t *testing.T, terms pass.Terms)
	}{
		{
			name: "monthly runs thirty days from now",
			typ:  pass.TypeMonthly,
			check: func(t *testing.T, terms pass.Terms) {
				m := terms.(pass.Monthly)
				end, err := pass.ParseTimestamp(m.EndDate)
				if err != nil {
					t.Fatal(err)
				}
				if !end.Equal(testTime.Add(30 * 24 * time.Hour)) {
					t.Errorf("end = %s", m.EndDate)
				}
			},
		},
		{
			name: "class pack holds eight classes",
			typ:  pass.TypeClassPack,
			check: func(t *testing.T, terms pass.Terms) {
				cp := terms.(pass.ClassPack)
				if cp.TotalClasses != 8 || cp.RemainingClasses != 8 {
					t.Errorf("got %d/%d, want 8/8", cp.RemainingClasses, cp.TotalClasses)
				}
			},
		},
		{
			name: "drop-in is unused and valid today",
			typ:  pass.TypeDropIn,
			check: func(t *testing.T, terms pass.Terms) {
				d := terms.(pass.DropIn)
				if d.State != pass.StatusUnused || d.ValidDate != "2026-03-01" {
					t.Errorf("got %+v", d)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, store, rec := newCreatePassDeps()
			p, err := ExecuteCreatePass(context.Background(), CreatePassInput{
				DancerID: "d1", BatchID: "b1", Type: tt.typ, ActorID: "admin",
			}, deps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Type() != tt.typ {
				t.Errorf("type = %s", p.Type())
			}
			tt.check(t, p.Terms)
			if _, ok := store.passes[p.ID]; !ok {
				t.Error("pass not persisted")
			}
			if got := rec.actions(); len(got) != 1 || got[0] != audit.ActionCreatePass {
				t.Errorf("audit actions = %v", got)
			}
		})
	}
}

func TestExecuteCreatePass_ExplicitClassCount(t *testing.T) {
	deps, _, _ := newCreatePassDeps()
	total := 12
	p, err := ExecuteCreatePass(context.Background(), CreatePassInput{
		DancerID: "d1", BatchID: "b1", Type: pass.TypeClassPack, TotalClasses: &total, ActorID: "admin",
	}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if cp := p.Terms.(pass.ClassPack); cp.TotalClasses != 12 || cp.RemainingClasses != 12 {
		t.Errorf("got %+v", cp)
	}
}

func TestExecuteCreatePass_Rejects(t *testing.T) {
	zero := 0
	tests := []struct {
		name  string
		input CreatePassInput
		check func(error) bool
	}{
		{"unknown type", CreatePassInput{DancerID: "d1", BatchID: "b1", Type: "annual", ActorID: "a"}, IsValidation},
		{"zero classes", CreatePassInput{DancerID: "d1", BatchID: "b1", Type: pass.TypeClassPack, TotalClasses: &zero, ActorID: "a"}, IsValidation},
		{"bad date", CreatePassInput{DancerID: "d1", BatchID: "b1", Type: pass.TypeMonthly, EndDate: "next week", ActorID: "a"}, IsValidation},
		{"end before start", CreatePassInput{DancerID: "d1", BatchID: "b1", Type: pass.TypeMonthly, StartDate: "2026-03-10", EndDate: "2026-03-01", ActorID: "a"}, IsValidation},
		{"unknown dancer", CreatePassInput{DancerID: "d9", BatchID: "b1", Type: pass.TypeMonthly, ActorID: "a"}, func(err error) bool { return errors.Is(err, dancer.ErrNotFound) }},
		{"unknown batch", CreatePassInput{DancerID: "d1", BatchID: "b9", Type: pass.TypeMonthly, ActorID: "a"}, func(err error) bool { return errors.Is(err, batch.ErrNotFound) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, store, _ := newCreatePassDeps()
			_, err := ExecuteCreatePass(context.Background(), tt.input, deps)
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if len(store.passes) != 0 {
				t.Error("no pass should be stored")
			}
		})
	}
}
