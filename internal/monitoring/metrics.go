package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transfer outcomes recorded against TransfersTotal.
const (
	OutcomeCompleted     = "completed"
	OutcomeSizeLimit     = "size_limit"
	OutcomeUpstreamError = "upstream_error"
	OutcomeUnsupported   = "unsupported_type"
	OutcomeDisconnect    = "client_disconnect"
)

// Metrics holds all Prometheus metrics. Each instance carries its own
// registry so tests can construct servers freely.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	TransfersTotal *prometheus.CounterVec
	TransferBytes  *prometheus.CounterVec

	registry  *prometheus.Registry
	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current values for the JSON metrics endpoint.
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	TotalTransfers int64   `json:"total_transfers"`
	BytesRelayed   int64   `json:"bytes_relayed"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	UptimeSeconds  float64 `json:"uptime_seconds"`

	totalDuration time.Duration
}

// NewMetrics creates a metrics collector with a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchview_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fetchview_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fetchview_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		TransfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchview_transfers_total",
				Help: "Bounded relay transfers by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		TransferBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchview_transfer_bytes_total",
				Help: "Bytes moved through the bounded relay by route",
			},
			[]string{"route"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if respSize > 0 {
		m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration
	if len(status) == 3 && status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTransfer records one bounded relay transfer.
func (m *Metrics) RecordTransfer(route, outcome string, bytes int64) {
	m.TransfersTotal.WithLabelValues(route, outcome).Inc()
	if bytes > 0 {
		m.TransferBytes.WithLabelValues(route).Add(float64(bytes))
	}

	m.mu.Lock()
	m.snapshot.TotalTransfers++
	m.snapshot.BytesRelayed += bytes
	m.mu.Unlock()
}

// GetSnapshot returns current values for the JSON endpoint.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	if snap.TotalRequests > 0 {
		snap.AvgDurationMs = float64(snap.totalDuration.Milliseconds()) / float64(snap.TotalRequests)
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
