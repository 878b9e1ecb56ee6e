package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide counters for the document lifecycle engine.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	versionsCreatedTotal  *prometheus.CounterVec
	duplicateUploadsTotal *prometheus.CounterVec
	transitionsTotal      *prometheus.CounterVec
	signAttemptsTotal     *prometheus.CounterVec
	documentsCompleted    prometheus.Counter
	embedDuration         prometheus.Histogram
}

// New builds a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	versionsCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "versions",
			Name:      "created_total",
			Help:      "Total document versions created, by storage bucket.",
		},
		[]string{"bucket"},
	)
	duplicateUploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "versions",
			Name:      "duplicate_uploads_total",
			Help:      "Total uploads rejected as duplicate content, by dedup scope.",
		},
		[]string{"scope"},
	)
	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "documents",
			Name:      "status_transitions_total",
			Help:      "Total document status transitions applied.",
		},
		[]string{"from", "to"},
	)
	signAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "signing",
			Name:      "attempts_total",
			Help:      "Total signature attempts, by outcome.",
		},
		[]string{"outcome"},
	)
	documentsCompleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "signet",
			Subsystem: "signing",
			Name:      "documents_completed_total",
			Help:      "Total documents fully signed by all parties.",
		},
	)
	embedDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "signet",
			Subsystem: "pdf",
			Name:      "embed_duration_seconds",
			Help:      "Duration of PDF signature embedding in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		versionsCreatedTotal,
		duplicateUploadsTotal,
		transitionsTotal,
		signAttemptsTotal,
		documentsCompleted,
		embedDuration,
	)

	return &Metrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		versionsCreatedTotal:  versionsCreatedTotal,
		duplicateUploadsTotal: duplicateUploadsTotal,
		transitionsTotal:      transitionsTotal,
		signAttemptsTotal:     signAttemptsTotal,
		documentsCompleted:    documentsCompleted,
		embedDuration:         embedDuration,
	}
}

// Handler exposes the registry for a /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	m.requestTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) VersionCreated(bucket string) {
	m.versionsCreatedTotal.WithLabelValues(bucket).Inc()
}

func (m *Metrics) DuplicateUpload(scope string) {
	m.duplicateUploadsTotal.WithLabelValues(scope).Inc()
}

func (m *Metrics) StatusTransition(from, to string) {
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) SignAttempt(outcome string) {
	m.signAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DocumentCompleted() {
	m.documentsCompleted.Inc()
}

func (m *Metrics) ObserveEmbed(seconds float64) {
	m.embedDuration.Observe(seconds)
}
