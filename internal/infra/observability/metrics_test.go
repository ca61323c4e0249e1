package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/e5digital/leads-bfa-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFunnelSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrLeadCaptured("Pet Shop")
	m.IncrLeadCaptured("Outro ramo")
	m.IncrLeadCaptured("Pet Shop")
	m.IncrCaptureRejected()
	m.IncrLogin("success")
	m.IncrLogin("failure")
	m.IncrLogin("failure")
	m.IncrNotificationFailure("email")

	s := m.FunnelSnapshot()
	assert.Equal(t, int64(3), s.LeadsCaptured)
	assert.Equal(t, int64(1), s.CaptureRejected)
	assert.Equal(t, int64(0), s.CaptureFailed)
	assert.Equal(t, int64(1), s.LoginsSucceeded)
	assert.Equal(t, int64(2), s.LoginsFailed)
	assert.Equal(t, int64(1), s.NotificationFailures)
	assert.InDelta(t, 0.75, s.CaptureSuccessRate, 1e-9)
}

func TestFunnelSnapshot_Empty(t *testing.T) {
	s := observability.NewMetrics().FunnelSnapshot()
	assert.Zero(t, s.LeadsCaptured)
	assert.Zero(t, s.CaptureSuccessRate)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrMutation("delete")

	assert.NotSame(t, a.Registry, b.Registry)
	assert.Zero(t, b.FunnelSnapshot().LeadsCaptured)
}

func TestHTTPMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(m.HTTPMetricsMiddleware)
	r.Get("/v1/admin/leads/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/leads/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	expected := `
# HELP leads_http_requests_total Total HTTP requests by route and status.
# TYPE leads_http_requests_total counter
leads_http_requests_total{method="GET",route="/v1/admin/leads/{id}",status="404"} 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "leads_http_requests_total"))
}

func TestZapLoggerMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	for _, p := range []string{"/ok", "/bad", "/boom", "/ping"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
	assert.Equal(t, "/bad", entries[1].ContextMap()["route"])
}

func TestNewLogger_Levels(t *testing.T) {
	assert.True(t, observability.NewLogger("debug").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, observability.NewLogger("warn").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, observability.NewLogger("nonsense").Core().Enabled(zapcore.InfoLevel))
}
