// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// result is "found" or "not_found".
	InvoiceDateExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_date_extractions_total",
			Help: "Invoice date extraction attempts by result",
		},
		[]string{"result"},
	)

	PaperlessRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperless_requests_total",
			Help: "Requests sent to the Paperless API",
		},
		[]string{"endpoint", "status"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Chat completion requests by outcome",
		},
		[]string{"status"},
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Chat completion latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	// outcome is "updated", "skipped" or "failed".
	BackfillDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_documents_total",
			Help: "Documents processed by the invoice date backfill",
		},
		[]string{"outcome"},
	)
)

func RecordExtraction(found bool) {
	if found {
		InvoiceDateExtractions.WithLabelValues("found").Inc()
		return
	}
	InvoiceDateExtractions.WithLabelValues("not_found").Inc()
}
