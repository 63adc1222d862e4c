package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tournament_admin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tournament_admin_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tournament_admin_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tournament_admin_db_connections_open",
			Help: "Number of open database connections in the pool",
		},
	)
)

// Image ingestion pipeline metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_uploads_total",
			Help: "Total number of image upload attempts by outcome",
		},
		[]string{"status"}, // accepted, validation_failed, processing_failed, storage_failed
	)

	UploadValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_upload_validation_failures_total",
			Help: "Upload validation failures by kind",
		},
		[]string{"kind"},
	)

	ImageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tournament_admin_image_processing_duration_seconds",
			Help:    "Image processing duration by phase",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"}, // decode, normalize, resize, encode, thumbnail
	)

	ImageBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_image_bytes_written_total",
			Help: "Bytes written to the upload storage by artifact kind",
		},
		[]string{"artifact"}, // full, thumbnail
	)

	ArtifactDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_artifact_deletes_total",
			Help: "Best-effort artifact deletions by outcome",
		},
		[]string{"status"}, // removed, missing, error, skipped
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_admin_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"}, // success, failure
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tournament_admin_sessions_active",
			Help: "Number of currently active admin sessions",
		},
	)
)

// RecordDBQuery records one database operation. Deferred from every
// storage gateway method:
//
//	start := time.Now()
//	var err error
//	defer func() { metrics.RecordDBQuery("insert_image", start, err) }()
func RecordDBQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueryTotal.WithLabelValues(operation, status).Inc()
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveProcessingPhase records the duration of one pipeline phase.
func ObserveProcessingPhase(phase string, start time.Time) {
	ImageProcessingDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
