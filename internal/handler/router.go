package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/observability"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthCheck probes one dependency for GET /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type routerOptions struct {
	corsOrigins []string
	rateLimit   int
	rateWindow  time.Duration
	checks      []HealthCheck
}

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins ...string) RouterOption {
	return func(o *routerOptions) { o.corsOrigins = origins }
}

// WithRateLimit bounds lead captures and admin logins per client IP.
// Each endpoint counts separately.
func WithRateLimit(limit int, window time.Duration) RouterOption {
	return func(o *routerOptions) {
		o.rateLimit = limit
		o.rateWindow = window
	}
}

// WithHealthChecks adds dependency probes to /healthz.
func WithHealthChecks(checks ...HealthCheck) RouterOption {
	return func(o *routerOptions) { o.checks = append(o.checks, checks...) }
}

// NewRouter creates the HTTP router with all routes and middleware.
// Lead routes are mounted only when leadSvc is set; admin routes also need sessions.
func NewRouter(leadSvc *service.LeadService, sessions *service.SessionManager, metrics *observability.Metrics, logger *zap.Logger, opts ...RouterOption) http.Handler {
	o := routerOptions{
		corsOrigins: []string{"*"},
		rateLimit:   5,
		rateWindow:  time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	captureLimiter := NewRateLimiter(o.rateLimit, o.rateWindow)
	loginLimiter := NewRateLimiter(o.rateLimit, o.rateWindow)

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(o.checks, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Calculadora & máscaras (public)
		// =============================================
		r.Post("/calculator/savings", savingsHandler(logger))
		r.Get("/format/phone", formatPhoneHandler())
		r.Get("/format/currency", formatCurrencyHandler())
		r.Get("/leads/options", leadOptionsHandler())

		if leadSvc == nil {
			return
		}

		// =============================================
		// 2. Captura de lead (public, rate limited)
		// =============================================
		r.With(captureLimiter.Middleware(logger)).Post("/leads", captureLeadHandler(leadSvc, logger))

		if sessions == nil {
			return
		}

		// =============================================
		// 3. Admin
		// =============================================
		r.Route("/admin", func(r chi.Router) {
			r.With(loginLimiter.Middleware(logger)).Post("/login", loginHandler(sessions, logger))

			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(sessions, logger))

				r.Post("/logout", logoutHandler(sessions, logger))
				r.Get("/stats", statsHandler(metrics))

				r.Route("/leads", func(r chi.Router) {
					r.Get("/", listLeadsHandler(leadSvc, logger))
					r.Get("/metrics", leadMetricsHandler(leadSvc, logger))
					r.Get("/export.csv", exportLeadsHandler(leadSvc, logger))
					r.Post("/bulk-delete", bulkDeleteHandler(leadSvc, logger))
					r.Get("/{id}", getLeadHandler(leadSvc, logger))
					r.Put("/{id}", updateLeadHandler(leadSvc, logger))
					r.Delete("/{id}", deleteLeadHandler(leadSvc, logger))
					r.Patch("/{id}/status", updateStatusHandler(leadSvc, logger))
					r.Get("/{id}/whatsapp", whatsAppHandler(leadSvc, logger))
				})
			})
		})
	})

	return r
}

// ============================================================
// Health & probes
// ============================================================

func healthzHandler(checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "leads-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		for _, c := range checks {
			start := time.Now()
			err := c.Check(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health check failed", zap.String("service", c.Name), zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: c.Name, Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func statsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.FunnelSnapshot())
	}
}
