package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	chapterUploadsTotal    *prometheus.CounterVec
	uploadLatencySeconds   prometheus.Histogram
	reviewsTotal           *prometheus.CounterVec
	reportRecoveriesTotal  *prometheus.CounterVec
	fileResolutionsTotal   *prometheus.CounterVec
	notificationsPublished *prometheus.CounterVec
	sseClientsActive       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		chapterUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chapter_uploads_total",
			Help: "Chapter upload attempts by outcome.",
		}, []string{"outcome"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chapter_upload_latency_seconds",
			Help:    "Latency distribution for chapter uploads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		})

		reviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chapter_reviews_total",
			Help: "Recorded review decisions by outcome.",
		}, []string{"decision"})

		reportRecoveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_recoveries_total",
			Help: "Analysis report decode outcomes per dimension.",
		}, []string{"dimension", "status"})

		fileResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "file_resolutions_total",
			Help: "Stored file resolution attempts by outcome.",
		}, []string{"outcome"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications published by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			chapterUploadsTotal,
			uploadLatencySeconds,
			reviewsTotal,
			reportRecoveriesTotal,
			fileResolutionsTotal,
			notificationsPublished,
			sseClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ChapterUploads exposes the upload outcome counter.
func ChapterUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return chapterUploadsTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// Reviews exposes the review decision counter.
func Reviews() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewsTotal
}

// ReportRecoveries exposes the report decode outcome counter.
func ReportRecoveries() *prometheus.CounterVec {
	RegisterMetrics()
	return reportRecoveriesTotal
}

// FileResolutions exposes the file resolution outcome counter.
func FileResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return fileResolutionsTotal
}

// NotificationsPublished exposes the notification counter.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// SSEClientsActive exposes the connected stream client gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
