package projections

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"regulars/internal/adapters/storage/audit"
	"regulars/internal/adapters/storage/batch"
	"regulars/internal/adapters/storage/dancer"
	"regulars/internal/adapters/storage/pass"
	"regulars/internal/adapters/storage/session"
	domainAccount "regulars/internal/domain/account"
	domainAttendance "regulars/internal/domain/attendance"
	domainAudit "regulars/internal/domain/audit"
	domainBatch "regulars/internal/domain/batch"
	domainDancer "regulars/internal/domain/dancer"
	domainPass "regulars/internal/domain/pass"
	domainSession "regulars/internal/domain/session"
	domainSettings "regulars/internal/domain/settings"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

type fakePasses []domainPass.Pass

func (f fakePasses) List(_ context.Context, filter pass.ListFilter) ([]domainPass.Pass, error) {
	var out []domainPass.Pass
	for _, p := range f {
		if filter.DancerID != "" && p.DancerID != filter.DancerID {
			continue
		}
		if filter.BatchID != "" && p.BatchID != filter.BatchID {
			continue
		}
		if len(filter.BatchIDs) > 0 && !slices.Contains(filter.BatchIDs, p.BatchID) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeSettings struct{ value domainSettings.Settings }

func (f fakeSettings) Get(context.Context) (domainSettings.Settings, error) { return f.value, nil }

type fakeBatches []domainBatch.Batch

func (f fakeBatches) List(_ context.Context, filter batch.ListFilter) ([]domainBatch.Batch, error) {
	var out []domainBatch.Batch
	for _, b := range f {
		if filter.ActiveOnly && !b.Active {
			continue
		}
		if filter.InstructorID != "" && !b.HasInstructor(filter.InstructorID) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeDancers []domainDancer.Dancer

func (f fakeDancers) GetByIDs(_ context.Context, ids []string) (map[string]domainDancer.Dancer, error) {
	out := make(map[string]domainDancer.Dancer)
	for _, d := range f {
		if slices.Contains(ids, d.ID) {
			out[d.ID] = d
		}
	}
	return out, nil
}

func (f fakeDancers) List(_ context.Context, filter dancer.ListFilter) ([]domainDancer.Dancer, error) {
	var out []domainDancer.Dancer
	for _, d := range f {
		if filter.ActiveOnly && !d.Active {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type fakeSessions []domainSession.Session

func (f fakeSessions) List(_ context.Context, filter session.ListFilter) ([]domainSession.Session, error) {
	var out []domainSession.Session
	for _, s := range f {
		if len(filter.BatchIDs) > 0 && !slices.Contains(filter.BatchIDs, s.BatchID) {
			continue
		}
		if filter.FromDate != "" && s.Date < filter.FromDate {
			continue
		}
		if filter.ToDate != "" && s.Date > filter.ToDate {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type fakeAttendance []domainAttendance.Record

func (f fakeAttendance) ListBySession(_ context.Context, sessionID string) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range f {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeAttendance) CountBySessions(_ context.Context, ids []string) (map[string]domainAttendance.Counts, error) {
	out := make(map[string]domainAttendance.Counts)
	for _, r := range f {
		if !slices.Contains(ids, r.SessionID) {
			continue
		}
		c := out[r.SessionID]
		c.Total++
		switch r.Status {
		case domainAttendance.StatusPresent:
			c.Present++
		case domainAttendance.StatusAbsent:
			c.Absent++
		}
		out[r.SessionID] = c
	}
	return out, nil
}

type fakeAudit struct {
	events     []domainAudit.Event
	lastLimit  int
	lastOffset int
}

func (f *fakeAudit) List(_ context.Context, _ audit.Filter, limit, offset int) ([]domainAudit.Event, error) {
	f.lastLimit, f.lastOffset = limit, offset
	if offset >= len(f.events) {
		return nil, nil
	}
	end := min(offset+limit, len(f.events))
	return slices.Clone(f.events[offset:end]), nil
}

func (f *fakeAudit) Count(context.Context, audit.Filter) (int, error) { return len(f.events), nil }

type fakeAccounts map[string]domainAccount.Account

func (f fakeAccounts) GetByID(_ context.Context, id string) (domainAccount.Account, error) {
	a, ok := f[id]
	if !ok {
		return domainAccount.Account{}, errors.New("not found")
	}
	return a, nil
}

func classPack(id, dancerID, batchID string, remaining int, created time.Time) domainPass.Pass {
	return domainPass.Pass{
		ID: id, DancerID: dancerID, BatchID: batchID, CreatedAt: created,
		Terms: domainPass.ClassPack{TotalClasses: 10, RemainingClasses: remaining},
	}
}

func monthly(id, dancerID, batchID, end string, created time.Time) domainPass.Pass {
	return domainPass.Pass{
		ID: id, DancerID: dancerID, BatchID: batchID, CreatedAt: created,
		Terms: domainPass.Monthly{StartDate: "2026-02-01T00:00:00Z", EndDate: end},
	}
}
