package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for pwdrift. All record methods are
// safe on a disabled (nil-vec) instance.
type Metrics struct {
	config MetricsConfig

	// Collection metrics
	collectTotal    *prometheus.CounterVec
	collectDuration *prometheus.HistogramVec
	collectErrors   *prometheus.CounterVec

	// Comparison metrics
	comparisonsTotal *prometheus.CounterVec
	driftFields      *prometheus.CounterVec

	// Apply metrics
	appliesTotal *prometheus.CounterVec

	// Rule metrics
	ruleViolations *prometheus.CounterVec

	// Report metrics
	reportsGenerated prometheus.Counter

	// Error metrics
	errorsByCode *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		collectTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collections_total",
				Help:      "Total number of policy collections attempted",
			},
			[]string{"component", "category"},
		),
		collectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "collection_duration_seconds",
				Help:      "Duration of policy collections in seconds",
				Buckets:   buckets,
			},
			[]string{"component", "category"},
		),
		collectErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collection_errors_total",
				Help:      "Total number of failed policy collections",
			},
			[]string{"component"},
		),

		comparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_total",
				Help:      "Total number of policy comparisons by outcome",
			},
			[]string{"component", "category", "outcome"},
		),
		driftFields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drift_fields_total",
				Help:      "Total number of drifting fields detected",
			},
			[]string{"component", "category"},
		),

		appliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applies_total",
				Help:      "Total number of policy apply operations",
			},
			[]string{"component", "status"},
		),

		ruleViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_violations_total",
				Help:      "Total number of compliance rule violations",
			},
			[]string{"rule", "severity"},
		),

		reportsGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Total number of drift reports generated",
			},
		),

		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of classified errors by code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.collectTotal,
		m.collectDuration,
		m.collectErrors,
		m.comparisonsTotal,
		m.driftFields,
		m.appliesTotal,
		m.ruleViolations,
		m.reportsGenerated,
		m.errorsByCode,
	)

	return m, nil
}

// RecordCollection records one policy collection with its duration.
func (m *Metrics) RecordCollection(component, category string, duration time.Duration) {
	if m.collectTotal == nil {
		return
	}
	m.collectTotal.WithLabelValues(component, category).Inc()
	m.collectDuration.WithLabelValues(component, category).Observe(duration.Seconds())
}

// RecordCollectionError records a failed collection.
func (m *Metrics) RecordCollectionError(component string) {
	if m.collectErrors == nil {
		return
	}
	m.collectErrors.WithLabelValues(component).Inc()
}

// RecordComparison records one comparison outcome ("clean" or "drifted")
// along with the number of drifting fields.
func (m *Metrics) RecordComparison(component, category string, driftedFields int) {
	if m.comparisonsTotal == nil {
		return
	}
	outcome := "clean"
	if driftedFields > 0 {
		outcome = "drifted"
		m.driftFields.WithLabelValues(component, category).Add(float64(driftedFields))
	}
	m.comparisonsTotal.WithLabelValues(component, category, outcome).Inc()
}

// RecordApply records a policy apply operation.
func (m *Metrics) RecordApply(component, status string) {
	if m.appliesTotal == nil {
		return
	}
	m.appliesTotal.WithLabelValues(component, status).Inc()
}

// RecordRuleViolation records one compliance rule violation.
func (m *Metrics) RecordRuleViolation(rule, severity string) {
	if m.ruleViolations == nil {
		return
	}
	m.ruleViolations.WithLabelValues(rule, severity).Inc()
}

// RecordReportGenerated counts generated drift reports.
func (m *Metrics) RecordReportGenerated() {
	if m.reportsGenerated == nil {
		return
	}
	m.reportsGenerated.Inc()
}

// RecordError records a classified error by code.
func (m *Metrics) RecordError(code string) {
	if m.errorsByCode == nil {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
