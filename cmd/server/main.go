package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	emailPkg "league/internal/adapters/email"
	web "league/internal/adapters/http"
	"league/internal/adapters/http/metrics"
	"league/internal/adapters/http/middleware"
	"league/internal/adapters/lock"
	"league/internal/adapters/storage"
	announcementStore "league/internal/adapters/storage/announcement"
	associationStore "league/internal/adapters/storage/association"
	auditStore "league/internal/adapters/storage/audit"
	clubStore "league/internal/adapters/storage/club"
	commentStore "league/internal/adapters/storage/comment"
	equipmentStore "league/internal/adapters/storage/equipment"
	eventStore "league/internal/adapters/storage/event"
	featureFlagStore "league/internal/adapters/storage/featureflag"
	memberStore "league/internal/adapters/storage/member"
	notificationStore "league/internal/adapters/storage/notification"
	outboxStore "league/internal/adapters/storage/outbox"
	reservationStore "league/internal/adapters/storage/reservation"
	sponsorStore "league/internal/adapters/storage/sponsor"
	"league/internal/application/jobs"
	"league/internal/application/orchestrators"
	"league/internal/config"
	"league/internal/domain/availability"
	"league/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	dialect := storage.Dialect(cfg.DBDriver)
	db, err := storage.Open(ctx, dialect, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := storage.MigrateDB(ctx, db, dialect); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	slog.Info("storage_event", "event", "database_ready", "driver", dialect, "schema", storage.LatestSchemaVersion())

	// Every store shares the timed wrapper so queries are measured and transactions join up.
	timedDB := storage.NewTimedDB(db, dialect, m, cfg.SlowQuery)
	stores := web.Stores{
		Associations:  associationStore.NewSQLStore(timedDB),
		Clubs:         clubStore.NewSQLStore(timedDB),
		Members:       memberStore.NewSQLStore(timedDB),
		Events:        eventStore.NewSQLStore(timedDB),
		Announcements: announcementStore.NewSQLStore(timedDB),
		Comments:      commentStore.NewSQLStore(timedDB),
		Notifications: notificationStore.NewSQLStore(timedDB),
		Items:         equipmentStore.NewSQLStore(timedDB),
		Reservations:  reservationStore.NewSQLStore(timedDB),
		Sponsors:      sponsorStore.NewSQLStore(timedDB),
		Audit:         auditStore.NewSQLStore(timedDB),
		Outbox:        outboxStore.NewSQLStore(timedDB),
		FeatureFlags:  featureFlagStore.NewSQLStore(timedDB),
	}

	// Approval lock: Redis when configured so several instances serialize together.
	var locker lock.Locker = lock.NewMemory()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedis(ctx, cfg.RedisURL, cfg.LockTTL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		locker = redisLock
		slog.Info("lock_event", "event", "redis_lock_configured")
	} else if cfg.IsProduction() {
		slog.Warn("lock_event", "event", "memory_lock", "message", "LEAGUE_REDIS_URL is not set; approvals are serialized per process only")
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.EmailReplyTo)
		slog.Info("email_event", "event", "sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_event", "event", "sender_noop", "message", "LEAGUE_RESEND_KEY is not set; email delivery is DISABLED")
		}
	}

	processor := orchestrators.NewOutboxProcessor(stores.Outbox,
		map[string]orchestrators.ActionExecutor{
			outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
		},
		orchestrators.WithBackoff(cfg.OutboxBaseDelay, cfg.OutboxMaxDelay),
		orchestrators.WithBatchSize(cfg.OutboxBatchSize),
		orchestrators.WithDeliveryMetrics(m),
	)

	engine, err := availability.NewEngine(cfg.AvailabilityMode)
	if err != nil {
		log.Fatalf("invalid availability mode: %v", err)
	}

	notifier := orchestrators.Notifier{
		Notifications: stores.Notifications,
		Outbox:        stores.Outbox,
		Flags:         stores.FeatureFlags,
		GenerateID:    newID,
		Now:           time.Now,
		BaseURL:       cfg.PublicBaseURL,
	}
	scheduler := jobs.New(jobs.WithRecorder(m), jobs.WithTimeout(5*time.Minute))
	for _, job := range []jobs.Job{
		jobs.OutboxDrain(cfg.OutboxSchedule, processor),
		jobs.ExpireRequests(cfg.ExpirySchedule, cfg.OutboxBatchSize, orchestrators.ExpireStaleRequestsDeps{
			Reservations: stores.Reservations,
			Members:      stores.Members,
			Audit:        stores.Audit,
			Notifier:     notifier,
			RunInTx:      timedDB.InTx,
			Metrics:      m,
			Now:          time.Now,
		}),
	} {
		if err := scheduler.Register(job); err != nil {
			log.Fatalf("failed to register job: %v", err)
		}
	}
	scheduler.Start(ctx)

	handler := web.NewMux(web.Deps{
		Stores:      stores,
		RunInTx:     timedDB.InTx,
		Locker:      locker,
		Engine:      engine,
		Outbox:      processor,
		Jobs:        scheduler,
		Metrics:     m,
		Verifier:    middleware.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AuthCookie),
		Limiter:     middleware.NewRateLimiter(ctx, cfg.RateLimit, cfg.RateLimitWindow),
		CSRFKey:     cfg.CSRFKeyBytes(),
		CSRF:        middleware.CSRFOptions{Secure: cfg.IsProduction()},
		SlowRequest: cfg.SlowRequest,
		BaseURL:     cfg.PublicBaseURL,
		Ping:        timedDB.PingContext,
		GenerateID:  newID,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.Info("http_event", "event", "server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("http_event", "event", "server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http_event", "event", "shutdown_failed", "error", err)
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		slog.Warn("jobs_event", "event", "jobs_still_running")
	}
	if closer, ok := locker.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("lock_event", "event", "close_failed", "error", err)
		}
	}
}

func newID() string { return uuid.New().String() }

// setupLogging installs the default slog handler: JSON in production, text otherwise.
func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	if os.Getenv("LEAGUE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
