package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"regulars/internal/adapters/http/middleware"
	"regulars/internal/adapters/http/perf"
	accountStore "regulars/internal/adapters/storage/account"
	attendanceStore "regulars/internal/adapters/storage/attendance"
	auditStore "regulars/internal/adapters/storage/audit"
	batchStore "regulars/internal/adapters/storage/batch"
	dancerStore "regulars/internal/adapters/storage/dancer"
	outboxStore "regulars/internal/adapters/storage/outbox"
	passStore "regulars/internal/adapters/storage/pass"
	sessionStore "regulars/internal/adapters/storage/session"
	settingsStore "regulars/internal/adapters/storage/settings"
	"regulars/internal/adapters/storage/storagetest"
	submissionStore "regulars/internal/adapters/storage/submission"
	"regulars/internal/application/orchestrators"
	"regulars/internal/domain/account"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

// apiHarness is a full handler over an in-memory database.
type apiHarness struct {
	t          *testing.T
	handler    http.Handler
	stores     Stores
	recorder   *orchestrators.AuditRecorder
	tokens     *middleware.Tokens
	adminToken string
	instrToken string
	otherToken string
	admin      account.Account
	instructor account.Account
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()
	db := storagetest.Open(t)
	stores := Stores{
		Accounts:    accountStore.NewSQLiteStore(db),
		Dancers:     dancerStore.NewSQLiteStore(db),
		Batches:     batchStore.NewSQLiteStore(db),
		Sessions:    sessionStore.NewSQLiteStore(db),
		Passes:      passStore.NewSQLiteStore(db),
		Attendance:  attendanceStore.NewSQLiteStore(db),
		Settings:    settingsStore.NewSQLiteStore(db),
		Audit:       auditStore.NewSQLiteStore(db),
		Submissions: submissionStore.NewSQLiteStore(db),
		Outbox:      outboxStore.NewSQLiteStore(db),
	}
	recorder := orchestrators.NewAuditRecorder(stores.Audit, 64)
	t.Cleanup(recorder.Close)

	tokens := middleware.NewTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour, testNow)
	h := &apiHarness{t: t, stores: stores, recorder: recorder, tokens: tokens}
	h.handler = NewMux(Options{
		Stores:      stores,
		Audit:       recorder,
		Tokens:      tokens,
		Outbox:      orchestrators.NewOutboxProcessor(stores.Outbox, nil),
		AlertTo:     []string{"owner@studio.test"},
		BulkWorkers: 4,
		CSRFKey:     bytes.Repeat([]byte("c"), 32),
		Perf:        perf.NewCollector(100),
		Now:         testNow,
	})

	h.admin = h.saveAccount("admin-1", "admin@studio.test", "Admin", account.RoleAdmin)
	h.instructor = h.saveAccount("instr-1", "maya@studio.test", "Maya", account.RoleInstructor)
	other := h.saveAccount("instr-2", "leo@studio.test", "Leo", account.RoleInstructor)
	h.adminToken = h.token(h.admin)
	h.instrToken = h.token(h.instructor)
	h.otherToken = h.token(other)
	return h
}

func (h *apiHarness) saveAccount(id, email, name, role string) account.Account {
	h.t.Helper()
	a := account.Account{ID: id, Email: email, Name: name, Role: role, Active: true, CreatedAt: testTime}
	if err := h.stores.Accounts.Save(context.Background(), a); err != nil {
		h.t.Fatalf("save account: %v", err)
	}
	return a
}

func (h *apiHarness) token(a account.Account) string {
	h.t.Helper()
	raw, _, err := h.tokens.Issue(a)
	if err != nil {
		h.t.Fatalf("issue token: %v", err)
	}
	return raw
}

// do sends a JSON request; body may be nil.
func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

// mustDo is do that fails the test on an unexpected status.
func (h *apiHarness) mustDo(want int, method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	rr := h.do(method, path, token, body)
	if rr.Code != want {
		h.t.Fatalf("%s %s = %d, want %d: %s", method, path, rr.Code, want, strings.TrimSpace(rr.Body.String()))
	}
	return rr
}

func decodeAs[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, rr.Body.String())
	}
	return v
}

// studio creates a batch taught by the harness instructor and one dancer.
func (h *apiHarness) studio() (batchID, dancerID string) {
	h.t.Helper()
	b := decodeAs[map[string]any](h.t, h.mustDo(http.StatusCreated, "POST", "/api/batches", h.adminToken, map[string]any{
		"batch_name":              "Salsa Basics",
		"studio_name":             "Main Hall",
		"schedule_days":           "Mon,Wed",
		"time_slot":               "18:00",
		"assigned_instructor_ids": []string{h.instructor.ID},
	}))
	d := decodeAs[map[string]any](h.t, h.mustDo(http.StatusCreated, "POST", "/api/dancers", h.adminToken, map[string]any{
		"full_name": "Asha Rao",
	}))
	return b["id"].(string), d["id"].(string)
}

// doWithHeader is do with one extra request header.
func (h *apiHarness) doWithHeader(method, path, token string, body any, key, value string) *httptest.ResponseRecorder {
	h.t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		h.t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(key, value)
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}
