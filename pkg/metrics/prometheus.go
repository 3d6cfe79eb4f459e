// Package metrics provides Prometheus metrics for the dashboard API client.
package metrics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// HTTP status boundaries used for error classification.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// Error types recorded on the errors counter.
const (
	ErrorTypeServer    = "server_error"
	ErrorTypeRateLimit = "rate_limit"
	ErrorTypeNotFound  = "not_found"
	ErrorTypeClient    = "client_error"
	ErrorTypeTransport = "transport"
	ErrorTypeDecode    = "decode"
	ErrorTypeUnknown   = "unknown"
)

// Result labels for overview loads.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager owns the client-side metrics of the dashboard API client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	inFlight        prometheus.Gauge
	overviewLoads   *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // default manager shared by clients built without WithMetrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps Go runtime collectors out of client metrics

func init() { //nolint:gochecknoinits // default manager setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors unless
// metrics are disabled.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dashboard",
		subsystem:        "client",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	// A disabled manager registers nothing, so it can be built any number of times.
	if m.enabled {
		m.initializeMetrics()
	}
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "requests_total",
		Help:        "Total number of backend requests by endpoint and response status",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "status_code"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "request_duration_milliseconds",
		Help:        "Backend request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint"})

	m.requestErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Total number of failed backend requests by endpoint and error type",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "error_type"})

	m.inFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "requests_in_flight",
		Help:        "Number of backend requests currently in flight",
		ConstLabels: m.customLabels,
	})

	m.overviewLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "overview_loads_total",
		Help:        "Total number of dashboard overview loads by result",
		ConstLabels: m.customLabels,
	}, []string{"result"})
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m != nil && m.enabled }

// RecordRequest records a completed request with its HTTP status and latency.
func (m *Manager) RecordRequest(endpoint string, statusCode int, d time.Duration) {
	if !m.Enabled() {
		return
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(float64(d.Microseconds()) / 1000)
	if statusCode >= statusBadRequest {
		m.requestErrors.WithLabelValues(endpoint, ErrorTypeForStatus(statusCode)).Inc()
	}
}

// RecordError records a failure that produced no usable response, such as a
// transport or decode error.
func (m *Manager) RecordError(endpoint, errorType string) {
	if !m.Enabled() {
		return
	}
	m.requestErrors.WithLabelValues(endpoint, errorType).Inc()
}

// IncInFlight marks a request as started.
func (m *Manager) IncInFlight() {
	if m.Enabled() {
		m.inFlight.Inc()
	}
}

// DecInFlight marks a request as finished.
func (m *Manager) DecInFlight() {
	if m.Enabled() {
		m.inFlight.Dec()
	}
}

// RecordOverviewLoad counts an overview load with the given result label.
func (m *Manager) RecordOverviewLoad(result string) {
	if m.Enabled() {
		m.overviewLoads.WithLabelValues(result).Inc()
	}
}

// ErrorTypeForStatus maps an HTTP status code to an error type label.
func ErrorTypeForStatus(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return ErrorTypeServer
	case statusCode == statusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == statusNotFound:
		return ErrorTypeNotFound
	case statusCode >= statusBadRequest:
		return ErrorTypeClient
	default:
		return ErrorTypeUnknown
	}
}

// Default returns the process-wide manager registered on GetRegistry().
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by the default manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteText gathers g and writes it in the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("%w: %w", ErrGatherFailed, err)
		}
	}
	return nil
}
