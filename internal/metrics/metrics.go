// Package metrics exposes the service's Prometheus metrics
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/liamcoop/spinecheck/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spinecheck"

// Assessment outcomes
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeInvalid = "invalid"
)

// Registry holds all service metrics on a private prometheus registry
type Registry struct {
	registry *prometheus.Registry

	Assessments  *prometheus.CounterVec
	RedFlags     prometheus.Counter
	Candidates   prometheus.Histogram
	TopCondition *prometheus.CounterVec
	Appointments *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a registry with the service metrics, the logger counters and the
// Go runtime collectors
func New() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_total",
				Help:      "Total number of assessments by outcome",
			},
			[]string{"outcome"},
		),

		RedFlags: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "red_flags_total",
				Help:      "Total number of assessments that reported an urgent-care symptom",
			},
		),

		Candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assessment_candidates",
				Help:      "Number of conditions reported per assessment",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),

		TopCondition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "top_condition_total",
				Help:      "Total number of times each condition ranked first",
			},
			[]string{"condition"},
		),

		Appointments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "appointments_total",
				Help:      "Total number of booked appointments by whether an assessment was attached",
			},
			[]string{"assessment"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.Assessments,
		m.RedFlags,
		m.Candidates,
		m.TopCondition,
		m.Appointments,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.registerLoggerCounters()

	return m
}

// registerLoggerCounters mirrors the logger's atomic counters
func (m *Registry) registerLoggerCounters() {
	counters := []struct {
		name  string
		help  string
		value func() int64
	}{
		{"log_errors_total", "Total number of errors logged, before sampling", logger.TotalErrors.Load},
		{"log_warnings_total", "Total number of warnings logged, before sampling", logger.TotalWarnings.Load},
		{"http_5xx_total", "Total number of 5xx responses", logger.Total5xxErrors.Load},
		{"http_4xx_total", "Total number of 4xx responses", logger.Total4xxErrors.Load},
		{"http_429_total", "Total number of rate-limited requests", logger.Total429Errors.Load},
		{"http_slow_requests_total", "Total number of requests over the slow threshold", logger.SlowRequests.Load},
	}

	for _, c := range counters {
		value := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      c.name,
				Help:      c.help,
			},
			func() float64 { return float64(value()) },
		))
	}
}

// TrackSessions exposes the number of open questionnaire sessions
func (m *Registry) TrackSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Number of questionnaire sessions held in memory",
		},
		func() float64 { return float64(count()) },
	))
}

// ObserveAssessment records a scored assessment
func (m *Registry) ObserveAssessment(candidates int, topCondition string, redFlag bool) {
	outcome := OutcomeMatched
	if candidates == 0 {
		outcome = OutcomeNoMatch
	}
	m.Assessments.WithLabelValues(outcome).Inc()
	m.Candidates.Observe(float64(candidates))
	if topCondition != "" {
		m.TopCondition.WithLabelValues(topCondition).Inc()
	}
	if redFlag {
		m.RedFlags.Inc()
	}
}

// AssessmentRejected records a response that failed validation
func (m *Registry) AssessmentRejected() {
	m.Assessments.WithLabelValues(OutcomeInvalid).Inc()
}

// AppointmentBooked records a stored appointment
func (m *Registry) AppointmentBooked(withAssessment bool) {
	label := "none"
	if withAssessment {
		label = "attached"
	}
	m.Appointments.WithLabelValues(label).Inc()
}

// ObserveRequest records one served HTTP request
func (m *Registry) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Gatherer returns the underlying registry
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the exposition format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
