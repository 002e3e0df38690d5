package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the transcript service.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     prometheus.Counter
	errorsTotal       prometheus.Counter
	submissionsTotal  *prometheus.CounterVec
	linesParsedTotal  prometheus.Counter
	linesDroppedTotal prometheus.Counter
	seeksTotal        *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	mediaHandles      prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_submissions_total",
		Help: "Transcription submissions by flow and outcome",
	}, []string{"flow", "outcome"})
	linesParsedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_lines_parsed_total",
		Help: "Transcript records that parsed into lines",
	})
	linesDroppedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_lines_dropped_total",
		Help: "Transcript records dropped because they did not parse",
	})
	seeksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_seeks_total",
		Help: "Seek requests by the player route they were dispatched to",
	}, []string{"route"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transcript_active_sessions",
		Help: "Number of open sessions",
	})
	mediaHandles := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transcript_media_handles",
		Help: "Number of live local media handles",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		submissionsTotal,
		linesParsedTotal,
		linesDroppedTotal,
		seeksTotal,
		activeSessions,
		mediaHandles,
	)

	return &Metrics{
		registry:          registry,
		requestsTotal:     requestsTotal,
		errorsTotal:       errorsTotal,
		submissionsTotal:  submissionsTotal,
		linesParsedTotal:  linesParsedTotal,
		linesDroppedTotal: linesDroppedTotal,
		seeksTotal:        seeksTotal,
		activeSessions:    activeSessions,
		mediaHandles:      mediaHandles,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSubmissions counts one submission for flow with the given outcome
// ("ready", "failed", "rejected").
func (m *Metrics) IncSubmissions(flow, outcome string) {
	m.submissionsTotal.WithLabelValues(flow, outcome).Inc()
}

// AddLines records the parsed and dropped record counts of one normalization.
func (m *Metrics) AddLines(parsed, dropped int) {
	m.linesParsedTotal.Add(float64(parsed))
	m.linesDroppedTotal.Add(float64(dropped))
}

// IncSeeks counts one seek dispatched to route.
func (m *Metrics) IncSeeks(route string) {
	m.seeksTotal.WithLabelValues(route).Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// SetMediaHandles sets the live media handles gauge.
func (m *Metrics) SetMediaHandles(n int) {
	m.mediaHandles.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
