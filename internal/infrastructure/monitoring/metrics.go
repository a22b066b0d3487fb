package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/esign/internal/domain/service"
)

// Metrics manages the Prometheus metrics of the client and the sandbox.
type Metrics struct {
	CallRequests    *prometheus.CounterVec
	CallLatency     *prometheus.HistogramVec
	Attempts        *prometheus.CounterVec
	Retries         *prometheus.CounterVec
	TokenRefreshes  *prometheus.CounterVec
	TokenLatency    prometheus.Histogram
	DomainErrors    *prometheus.CounterVec
	SandboxRequests *prometheus.CounterVec
	SandboxLatency  *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CallRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_call_requests_total",
				Help: "Total number of logical API calls.",
			},
			[]string{"operation", "method", "result"},
		),
		CallLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "esign_call_latency_seconds",
				Help:    "End-to-end latency of logical API calls, retries included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_transport_attempts_total",
				Help: "Total number of transport calls issued.",
			},
			[]string{"method"},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_token_retries_total",
				Help: "Total number of refresh-and-resubmit cycles.",
			},
			[]string{"method"},
		),
		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_token_refreshes_total",
				Help: "Total number of access token fetches from the token endpoint.",
			},
			[]string{"result"},
		),
		TokenLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "esign_token_refresh_latency_seconds",
				Help:    "Latency of access token fetches.",
				Buckets: prometheus.DefBuckets,
			},
		),
		DomainErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_domain_errors_total",
				Help: "Total number of nonzero response envelope codes surfaced to callers.",
			},
			[]string{"code"},
		),
		SandboxRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_sandbox_requests_total",
				Help: "Total number of requests served by the sandbox.",
			},
			[]string{"path", "method", "status"},
		),
		SandboxLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "esign_sandbox_request_duration_seconds",
				Help:    "Latency of sandbox requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
}

// RecordCall records the outcome of one logical call.
func (m *Metrics) RecordCall(operation, method, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CallRequests.WithLabelValues(operation, method, result).Inc()
	m.CallLatency.WithLabelValues(operation, method).Observe(duration.Seconds())
}

// RecordAttempt counts one transport call.
func (m *Metrics) RecordAttempt(method string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(method).Inc()
}

// RecordRetry counts one refresh-and-resubmit cycle.
func (m *Metrics) RecordRetry(method string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(method).Inc()
}

// RecordTokenRefresh records a token endpoint fetch.
func (m *Metrics) RecordTokenRefresh(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
	m.TokenLatency.Observe(duration.Seconds())
}

// RecordDomainError counts a nonzero envelope code returned to a caller.
func (m *Metrics) RecordDomainError(code int) {
	if m == nil {
		return
	}
	m.DomainErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveSandboxRequest records one request served by the sandbox. path is the route
// template so flow ids do not explode the label set.
func (m *Metrics) ObserveSandboxRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SandboxRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.SandboxLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

var _ service.Metrics = (*Metrics)(nil)
