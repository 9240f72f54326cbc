package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"regulars/internal/adapters/storage/submission"
	"regulars/internal/domain/account"
	"regulars/internal/domain/attendance"
	"regulars/internal/domain/audit"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
	"regulars/internal/domain/outbox"
	"regulars/internal/domain/pass"
	"regulars/internal/domain/session"
	"regulars/internal/domain/settings"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

// fakePassStore keeps passes in memory and applies UpdateTerms as a
// compare-and-swap on the stored terms.
type fakePassStore struct {
	mu        sync.Mutex
	passes    map[string]pass.Pass
	updates   int
	conflicts int // UpdateTerms calls that fail with ErrConflict before succeeding
}

func newFakePassStore(passes ...pass.Pass) *fakePassStore {
	s := &fakePassStore{passes: make(map[string]pass.Pass)}
	for _, p := range passes {
		s.passes[p.ID] = p
	}
	return s
}

func (s *fakePassStore) GetByID(_ context.Context, id string) (pass.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.passes[id]
	if !ok {
		return pass.Pass{}, fmt.Errorf("pass %s: %w", id, pass.ErrNotFound)
	}
	return p, nil
}

func (s *fakePassStore) ListByDancerBatch(_ context.Context, dancerID, batchID string) ([]pass.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pass.Pass
	for _, p := range s.passes {
		if p.DancerID == dancerID && p.BatchID == batchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakePassStore) Insert(_ context.Context, p pass.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes[p.ID] = p
	return nil
}

func (s *fakePassStore) UpdateTerms(_ context.Context, id string, prev, next pass.Terms) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.passes[id]
	if !ok {
		return fmt.Errorf("pass %s: %w", id, pass.ErrNotFound)
	}
	if s.conflicts > 0 {
		s.conflicts--
		return pass.ErrConflict
	}
	if p.Terms != prev {
		return pass.ErrConflict
	}
	s.passes[id] = p.WithTerms(next)
	s.updates++
	return nil
}

func (s *fakePassStore) get(id string) pass.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes[id]
}

type fakeAttendanceStore struct {
	mu      sync.Mutex
	records map[string]attendance.Record // key: session/dancer
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{records: make(map[string]attendance.Record)}
}

func (s *fakeAttendanceStore) GetBySessionDancer(_ context.Context, sessionID, dancerID string) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[sessionID+"/"+dancerID]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return r, nil
}

func (s *fakeAttendanceStore) Upsert(_ context.Context, r attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := r.SessionID + "/" + r.DancerID
	if prior, ok := s.records[key]; ok {
		r.ID = prior.ID
	}
	s.records[key] = r
	return r, nil
}

func (s *fakeAttendanceStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type fakeSettings struct {
	mu    sync.Mutex
	value settings.Settings
	saves int
}

func (s *fakeSettings) Get(context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *fakeSettings) Save(_ context.Context, v settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.saves++
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func newFakeSessions(ss ...session.Session) *fakeSessions {
	f := &fakeSessions{sessions: make(map[string]session.Session)}
	for _, s := range ss {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}
	return s, nil
}

func (f *fakeSessions) GetByBatchDate(_ context.Context, batchID, date string) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.BatchID == batchID && s.Date == date {
			return s, nil
		}
	}
	return session.Session{}, session.ErrNotFound
}

func (f *fakeSessions) Insert(_ context.Context, s session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.BatchID == s.BatchID && existing.Date == s.Date {
			return session.ErrAlreadyExists
		}
	}
	f.sessions[s.ID] = s
	return nil
}

type fakeBatches map[string]batch.Batch

func (f fakeBatches) GetByID(_ context.Context, id string) (batch.Batch, error) {
	b, ok := f[id]
	if !ok {
		return batch.Batch{}, fmt.Errorf("batch %s: %w", id, batch.ErrNotFound)
	}
	return b, nil
}

type fakeDancers map[string]dancer.Dancer

func (f fakeDancers) GetByID(_ context.Context, id string) (dancer.Dancer, error) {
	d, ok := f[id]
	if !ok {
		return dancer.Dancer{}, fmt.Errorf("dancer %s: %w", id, dancer.ErrNotFound)
	}
	return d, nil
}

func (f fakeDancers) GetByIDs(_ context.Context, ids []string) (map[string]dancer.Dancer, error) {
	out := make(map[string]dancer.Dancer)
	for _, id := range ids {
		if d, ok := f[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

// recordingAudit collects events synchronously.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeSubmissions struct {
	mu   sync.Mutex
	byID map[string]submission.Submission
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{byID: make(map[string]submission.Submission)}
}

func (f *fakeSubmissions) Get(_ context.Context, key string) (submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[key]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	return s, nil
}

func (f *fakeSubmissions) Save(_ context.Context, s submission.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.Key]; ok {
		return submission.ErrDuplicate
	}
	f.byID[s.Key] = s
	return nil
}

type fakeOutbox struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
	order   []string
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{entries: make(map[string]outbox.Entry)}
}

func (f *fakeOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return outbox.Entry{}, outbox.ErrNotFound
	}
	return e, nil
}

func (f *fakeOutbox) Save(_ context.Context, e outbox.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.ID]; !ok {
		f.order = append(f.order, e.ID)
	}
	f.entries[e.ID] = e
	return nil
}

func (f *fakeOutbox) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []outbox.Entry
	for _, id := range f.order {
		e := f.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]account.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]account.Account)}
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, fmt.Errorf("account %s: %w", email, account.ErrNotFound)
}

func (f *fakeAccounts) Save(_ context.Context, a account.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.ID] = a
	return nil
}
