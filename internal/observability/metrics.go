package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tcm",
		Name:      "records_created_total",
		Help:      "Total number of records appended, per log",
	}, []string{"log"})

	ReviewsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tcm",
		Name:      "reviews_decided_total",
		Help:      "Total number of review records moved out of pending",
	}, []string{"decision"})

	Annotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcm",
		Name:      "annotations_total",
		Help:      "Total number of feedback records annotated with ground truth",
	})

	LogRewriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tcm",
		Name:      "log_rewrite_duration_seconds",
		Help:      "Duration of full record log rewrites",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"log"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tcm",
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of calls to the classifier and catalog services",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "outcome"})

	BlobsMissing = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tcm",
		Name:      "blobs_missing_total",
		Help:      "Records skipped in listings because their image blob was missing",
	}, []string{"namespace"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tcm",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tcm",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
