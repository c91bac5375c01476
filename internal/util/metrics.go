package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_fetches_total",
		Help: "Total number of report aggregation fetches",
	})

	ReportFetchFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_fetch_failed_total",
		Help: "Total number of failed report aggregation fetches",
	}, []string{"endpoint"})

	ReportFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_fetch_latency_seconds",
		Help:    "Latency of full report aggregation fetches",
		Buckets: prometheus.DefBuckets,
	})

	ReportStaleDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_stale_drops_total",
		Help: "Total number of late fetch responses discarded as stale",
	})

	ExportsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exports_started_total",
		Help: "Total number of report exports started",
	})

	ExportsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exports_completed_total",
		Help: "Total number of report exports completed",
	})

	ExportsDeclinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exports_declined_total",
		Help: "Total number of report exports declined at confirmation",
	})

	ExportsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_failed_total",
		Help: "Total number of failed report exports",
	}, []string{"stage"})

	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_duration_seconds",
		Help:    "Duration of the capture-compose-save export flow",
		Buckets: prometheus.DefBuckets,
	})

	CaptureLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capture_latency_seconds",
		Help:    "Latency of raster snapshot capture",
		Buckets: prometheus.DefBuckets,
	})

	PDFPagesGenerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdf_pages_generated",
		Help:    "Number of pages in generated report documents",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
