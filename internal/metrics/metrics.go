// Package metrics registers the prometheus collectors served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mailtriage/internal/model"
)

// UnknownCategory is the category label for classifier output outside the
// known set.
const UnknownCategory = "unknown"

var (
	// Completion call latency per pipeline stage.
	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_completion_latency_seconds",
			Help:    "Model completion latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"stage", "status"},
	)

	EmailProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_email_process_duration_seconds",
			Help:    "End to end email processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"status"},
	)

	EmailProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_email_processed_total",
			Help: "Total number of emails processed",
		},
		[]string{"status"}, // success, failed
	)

	EmailCategoryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_email_category_total",
			Help: "Classified emails per category",
		},
		[]string{"category"},
	)

	TableSaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_table_save_duration_seconds",
			Help:    "Time spent persisting the email table",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"backend", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	InboxImportCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_inbox_messages_total",
			Help: "Mailbox messages seen by the importer",
		},
		[]string{"outcome"}, // processed, skipped, failed
	)
)

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

func RecordCompletion(stage string, ok bool, d time.Duration) {
	CompletionLatency.WithLabelValues(stage, statusLabel(ok)).Observe(d.Seconds())
}

// categoryLabel keeps the category label set bounded.
func categoryLabel(category string) string {
	if model.IsKnownCategory(category) {
		return category
	}
	return UnknownCategory
}

func RecordEmailProcessed(category string, ok bool, d time.Duration) {
	status := statusLabel(ok)
	EmailProcessedCount.WithLabelValues(status).Inc()
	EmailProcessDuration.WithLabelValues(status).Observe(d.Seconds())
	if ok {
		EmailCategoryCount.WithLabelValues(categoryLabel(category)).Inc()
	}
}

func RecordTableSave(backend string, ok bool, d time.Duration) {
	TableSaveDuration.WithLabelValues(backend, statusLabel(ok)).Observe(d.Seconds())
}

func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func AddInboxMessages(outcome string, n int) {
	if n > 0 {
		InboxImportCount.WithLabelValues(outcome).Add(float64(n))
	}
}
