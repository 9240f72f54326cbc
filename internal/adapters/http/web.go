package web

import (
	"net/http"
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
	submissionStore "regulars/internal/adapters/storage/submission"
	"regulars/internal/application/keylock"
	"regulars/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	Accounts    accountStore.Store
	Dancers     dancerStore.Store
	Batches     batchStore.Store
	Sessions    sessionStore.Store
	Passes      passStore.Store
	Attendance  attendanceStore.Store
	Settings    settingsStore.Store
	Audit       auditStore.Store
	Submissions submissionStore.Store
	Outbox      outboxStore.Store
}

// Options configures the HTTP handler.
type Options struct {
	Stores Stores
	Audit  orchestrators.AuditSink
	Tokens *middleware.Tokens

	// Outbox handles the admin retry and abandon endpoints; nil disables them.
	Outbox *orchestrators.OutboxProcessor
	// AlertTo receives pass alert emails after bulk attendance; empty disables alerts.
	AlertTo []string
	// BulkWorkers bounds per-submission concurrency; <= 0 uses the orchestrator default.
	BulkWorkers int

	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	RateLimit      int // requests per second per client; <= 0 disables limiting
	SlowRequest    time.Duration
	Perf           *perf.Collector // optional

	// Stop ends background housekeeping such as the rate limiter sweep.
	Stop <-chan struct{}
	Now  func() time.Time
}

// server carries the dependencies every handler reads.
type server struct {
	stores  Stores
	audit   orchestrators.AuditSink
	tokens  *middleware.Tokens
	outbox  *orchestrators.OutboxProcessor
	alertTo []string
	workers int
	perf    *perf.Collector
	locks   *keylock.Locker
	now     func() time.Time
}

// NewMux wires every API route and the middleware chain.
// PRE: opts.Stores are all set; opts.Audit, opts.Tokens and opts.CSRFKey are non-nil
func NewMux(opts Options) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &server{
		stores:  opts.Stores,
		audit:   opts.Audit,
		tokens:  opts.Tokens,
		outbox:  opts.Outbox,
		alertTo: opts.AlertTo,
		workers: opts.BulkWorkers,
		perf:    opts.Perf,
		locks:   keylock.New(),
		now:     now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	chain := []func(http.Handler) http.Handler{
		middleware.Timing(opts.SlowRequest, opts.Perf),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(opts.Tokens, opts.Stores.Accounts),
	}
	if opts.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimit, time.Second)
		if opts.Stop != nil {
			go limiter.RunSweeper(time.Minute, opts.Stop)
		}
		chain = append(chain, middleware.RateLimit(limiter))
	}
	// Timing sits next to the mux so the matched route pattern is visible to it.
	return middleware.Chain(mux, chain...)
}
