package domain

// ============================================================
// Health & stats API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// FunnelStats is returned by GET /v1/admin/stats. Values are cumulative
// since process start.
type FunnelStats struct {
	LeadsCaptured        int64   `json:"leadsCaptured"`
	CaptureRejected      int64   `json:"captureRejected"`
	CaptureFailed        int64   `json:"captureFailed"`
	LoginsSucceeded      int64   `json:"loginsSucceeded"`
	LoginsFailed         int64   `json:"loginsFailed"`
	NotificationFailures int64   `json:"notificationFailures"`
	CaptureSuccessRate   float64 `json:"captureSuccessRate"`
	Period               string  `json:"period"`
}

// SuccessResponse wraps a successful action without a body of its own.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
