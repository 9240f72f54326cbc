package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"regulars/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestTiming_RecordsRoutePattern(t *testing.T) {
	collector := perf.NewCollector(100)
	mux := http.NewServeMux()
	mux.Handle("GET /api/passes/{id}", okHandler(http.StatusOK))
	handler := Timing(time.Second, collector)(mux)

	for _, id := range []string{"p1", "p2"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/passes/"+id, nil))
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestRoutes) != 1 {
		t.Fatalf("SlowestRoutes = %+v, want one route", snap.SlowestRoutes)
	}
	if got := snap.SlowestRoutes[0]; got.Label != "GET /api/passes/{id}" || got.Count != 2 {
		t.Errorf("route = %+v", got)
	}
}

func TestTiming_CapturesStatusCode(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(time.Second, collector)(okHandler(http.StatusServiceUnavailable))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if snap := collector.Snapshot(time.Now().Add(-time.Minute), 10); snap.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", snap.ServerErrors)
	}
}

func TestTiming_NilCollector(t *testing.T) {
	handler := Timing(0, nil)(okHandler(http.StatusNoContent))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/settings", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}
