// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// GenerationDuration tracks end-to-end generation time including retries.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_generation_duration_seconds",
			Help:    "Email generation duration including retries",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// GenerationAttempts counts individual provider calls by outcome.
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_generation_attempts_total",
			Help: "Provider completion attempts by outcome",
		},
		[]string{"model", "outcome"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ExtractionsTotal counts attachment extractions by extension and outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_extractions_total",
			Help: "Attachment extractions by file extension and outcome",
		},
		[]string{"extension", "outcome"},
	)

	// ExportsTotal counts document exports by format and outcome.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_exports_total",
			Help: "Document exports by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	// SessionsActive tracks live sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of live composer sessions",
		},
	)

	// HistoryRecordsTotal counts history records appended.
	HistoryRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_records_total",
			Help: "Total history records appended",
		},
	)

	// HistoryEvictionsTotal counts records evicted by the history bound.
	HistoryEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_evictions_total",
			Help: "History records evicted because the bound was exceeded",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordGeneration records one finished generation.
func RecordGeneration(model, status string, duration float64, tokensIn, tokensOut int) {
	GenerationDuration.WithLabelValues(model, status).Observe(duration)
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordAttempt records the outcome of a single provider call.
func RecordAttempt(model, outcome string) {
	GenerationAttempts.WithLabelValues(model, outcome).Inc()
}

// RecordExtraction records an attachment extraction outcome.
func RecordExtraction(extension, outcome string) {
	if extension == "" {
		extension = "none"
	}
	ExtractionsTotal.WithLabelValues(extension, outcome).Inc()
}

// RecordExport records a document export outcome.
func RecordExport(format, outcome string) {
	ExportsTotal.WithLabelValues(format, outcome).Inc()
}
