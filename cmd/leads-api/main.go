package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/config"
	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/handler"
	"github.com/e5digital/leads-bfa-go/internal/infra/cache"
	"github.com/e5digital/leads-bfa-go/internal/infra/credentials"
	"github.com/e5digital/leads-bfa-go/internal/infra/mail"
	"github.com/e5digital/leads-bfa-go/internal/infra/observability"
	"github.com/e5digital/leads-bfa-go/internal/infra/postgres"
	"github.com/e5digital/leads-bfa-go/internal/infra/queue"
	"github.com/e5digital/leads-bfa-go/internal/infra/resilience"
	"github.com/e5digital/leads-bfa-go/internal/infra/supabase"
	"github.com/e5digital/leads-bfa-go/internal/port"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"go.uber.org/zap"
)

const serviceName = "leads-bfa"

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, zap.String("service", serviceName))
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("timezone", cfg.Timezone),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("rabbitmq", cfg.RabbitMQURL != ""),
		zap.Bool("smtp", cfg.SMTPHost != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("lead-store", logger)

	var checks []handler.HealthCheck

	// --- Lead store ---
	var store port.LeadStore
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		pg := postgres.NewLeadsStore(db, cfg.LeadsTable, cb, resilienceCfg, logger)
		store = pg
		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: pg.Ping})
		logger.Info("using Postgres as lead store", zap.String("table", cfg.LeadsTable))
	default:
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		sb := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cfg.LeadsTable,
			cb,
			resilienceCfg,
			logger,
		)
		store = sb
		checks = append(checks, handler.HealthCheck{Name: "supabase", Check: sb.Ping})
		logger.Info("using Supabase as lead store",
			zap.String("supabase_url", cfg.SupabaseURL),
			zap.String("table", cfg.LeadsTable),
		)
	}

	// --- Cache ---
	var leadCache port.Cache[[]domain.Lead]
	var revoked port.Cache[bool]
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		leadCache = cache.NewRedis[[]domain.Lead](rdb, "leads-bfa:", cfg.CacheTTL, logger)
		revoked = cache.NewRedis[bool](rdb, "leads-bfa:", cfg.SessionTTL, logger)
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("using Redis cache")
	} else {
		memLeads := cache.New[[]domain.Lead](cfg.CacheTTL)
		memRevoked := cache.New[bool](cfg.SessionTTL)
		defer memLeads.Close()
		defer memRevoked.Close()
		leadCache, revoked = memLeads, memRevoked
		logger.Warn("REDIS_URL not set: using in-process cache, sessions are not shared between replicas")
	}

	// --- Notifications ---
	var publisher port.LeadEventPublisher = queue.Noop{}
	if cfg.RabbitMQURL != "" {
		pub, err := queue.NewPublisher(cfg.RabbitMQURL, cfg.LeadsExchange, logger)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		checks = append(checks, handler.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if !pub.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		}})
	} else {
		logger.Warn("RABBITMQ_URL not set: lead events are not published")
	}

	var notifier port.LeadNotifier = mail.Noop{}
	if cfg.SMTPHost != "" && len(cfg.LeadNotifyTo) > 0 {
		dialer := mail.NewSMTPDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		notifier = mail.NewSender(dialer, cfg.SMTPFrom, cfg.LeadNotifyTo, cfg.Location, logger)
	} else {
		logger.Warn("SMTP not configured: new leads are not e-mailed")
	}

	// --- Admin credentials ---
	var verifier *credentials.Static
	if cfg.AdminPasswordHash != "" {
		verifier, err = credentials.NewStatic(cfg.AdminUsername, cfg.AdminPasswordHash)
	} else {
		verifier, err = credentials.NewStaticFromPassword(cfg.AdminUsername, cfg.AdminPassword)
	}
	if err != nil {
		logger.Fatal("invalid admin credentials", zap.Error(err))
	}

	// --- Services ---
	leadSvc := service.NewLeadService(store, leadCache, metrics, logger,
		service.WithPublisher(publisher),
		service.WithNotifier(notifier),
		service.WithLocation(cfg.Location),
	)
	sessions := service.NewSessionManager(verifier, revoked, cfg.SessionSecret, cfg.SessionTTL, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(leadSvc, sessions, metrics, logger,
		handler.WithCORSOrigins(cfg.CORSAllowedOrigins...),
		handler.WithRateLimit(cfg.CaptureRateLimit, cfg.CaptureRateWindow),
		handler.WithHealthChecks(checks...),
	)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
