package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"regulars/internal/adapters/email"
	web "regulars/internal/adapters/http"
	"regulars/internal/adapters/http/middleware"
	"regulars/internal/adapters/http/perf"
	"regulars/internal/adapters/storage"
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
	"regulars/internal/application/orchestrators"
	"regulars/internal/config"
	"regulars/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	// WAL mode, foreign keys and busy timeout on every connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timed := storage.NewTimedDB(db, cfg.SlowQueryThreshold(), collector.ObserveQuery)

	stores := web.Stores{
		Accounts:    accountStore.NewSQLiteStore(timed),
		Dancers:     dancerStore.NewSQLiteStore(timed),
		Batches:     batchStore.NewSQLiteStore(timed),
		Sessions:    sessionStore.NewSQLiteStore(timed),
		Passes:      passStore.NewSQLiteStore(timed),
		Attendance:  attendanceStore.NewSQLiteStore(timed),
		Settings:    settingsStore.NewSQLiteStore(timed),
		Audit:       auditStore.NewSQLiteStore(timed),
		Submissions: submissionStore.NewSQLiteStore(timed),
		Outbox:      outboxStore.NewSQLiteStore(timed),
	}

	recorder := orchestrators.NewAuditRecorder(stores.Audit, cfg.AuditBuffer)
	defer recorder.Close()

	ctx := context.Background()
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: stores.Accounts}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("email_configured", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_configured", "provider", "noop", "detail", "REGULARS_RESEND_KEY unset, pass alerts are not delivered")
		}
	}
	processor := orchestrators.NewOutboxProcessor(stores.Outbox, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypePassAlert: &orchestrators.PassAlertExecutor{Sender: sender, From: cfg.ResendFrom},
	})

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go orchestrators.RunOutboxWorker(workerCtx, processor, cfg.OutboxInterval)
	stop := make(chan struct{})
	defer close(stop)

	jwtSecret, err := cfg.JWTSecretBytes()
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	handler := web.NewMux(web.Options{
		Stores:        stores,
		Audit:         recorder,
		Tokens:        middleware.NewTokens(jwtSecret, cfg.TokenTTL, nil),
		Outbox:        processor,
		AlertTo:       cfg.AlertTo,
		BulkWorkers:   cfg.BulkWorkers,
		CSRFKey:       csrfKey,
		SecureCookies: cfg.IsProduction(),
		RateLimit:     cfg.RateLimit,
		SlowRequest:   cfg.SlowRequestThreshold(),
		Perf:          collector,
		Stop:          stop,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		slog.Info("server_stopping", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server_stopped", "audit_dropped", recorder.Dropped())
	return nil
}
