package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the leads BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration      *prometheus.HistogramVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	externalErrors       *prometheus.CounterVec
	cacheHits            *prometheus.CounterVec
	cacheMisses          *prometheus.CounterVec
	leadsCaptured        *prometheus.CounterVec
	captureOutcomes      *prometheus.CounterVec
	leadMutations        *prometheus.CounterVec
	logins               *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leads_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_http_requests_total",
				Help: "Total HTTP requests by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leads_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		leadsCaptured: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_captured_total",
				Help: "Leads captured by segment.",
			},
			[]string{"segment"},
		),
		captureOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_capture_outcomes_total",
				Help: "Capture attempts by outcome.",
			},
			[]string{"outcome"},
		),
		leadMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_mutations_total",
				Help: "Dashboard mutations by kind.",
			},
			[]string{"kind"},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_admin_logins_total",
				Help: "Admin login attempts by result.",
			},
			[]string{"result"},
		),
		notificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_notification_failures_total",
				Help: "Failed side notifications by channel.",
			},
			[]string{"channel"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrLeadCaptured counts a stored lead.
func (m *Metrics) IncrLeadCaptured(segment string) {
	m.leadsCaptured.WithLabelValues(segment).Inc()
	m.captureOutcomes.WithLabelValues("success").Inc()
}

// IncrCaptureRejected counts a form that failed validation.
func (m *Metrics) IncrCaptureRejected() {
	m.captureOutcomes.WithLabelValues("rejected").Inc()
}

// IncrCaptureFailed counts a valid form the store refused.
func (m *Metrics) IncrCaptureFailed() {
	m.captureOutcomes.WithLabelValues("failed").Inc()
}

// IncrMutation counts a dashboard change.
func (m *Metrics) IncrMutation(kind string) {
	m.leadMutations.WithLabelValues(kind).Inc()
}

// IncrLogin counts an admin login attempt; result is "success" or "failure".
func (m *Metrics) IncrLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// IncrNotificationFailure counts a broker or e-mail failure.
func (m *Metrics) IncrNotificationFailure(channel string) {
	m.notificationFailures.WithLabelValues(channel).Inc()
}

// FunnelSnapshot returns capture and login counters for GET /v1/admin/stats.
func (m *Metrics) FunnelSnapshot() *domain.FunnelStats {
	captured := getCounterValue(m.captureOutcomes, "success")
	rejected := getCounterValue(m.captureOutcomes, "rejected")
	failed := getCounterValue(m.captureOutcomes, "failed")

	rate := float64(0)
	if attempts := captured + rejected + failed; attempts > 0 {
		rate = captured / attempts
	}

	return &domain.FunnelStats{
		LeadsCaptured:        int64(captured),
		CaptureRejected:      int64(rejected),
		CaptureFailed:        int64(failed),
		LoginsSucceeded:      int64(getCounterValue(m.logins, "success")),
		LoginsFailed:         int64(getCounterValue(m.logins, "failure")),
		NotificationFailures: int64(getCounterValue(m.notificationFailures, "broker") + getCounterValue(m.notificationFailures, "email")),
		CaptureSuccessRate:   rate,
		Period:               "since_start",
	}
}

// HTTPMetricsMiddleware counts requests and observes latency labelled by the
// chi route pattern, so path ids do not blow up cardinality.
func (m *Metrics) HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
