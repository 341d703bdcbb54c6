// Package metrics provides Prometheus metrics for the unified search service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "unifiedsearch"

var (
	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// OutboundRequestsTotal tracks calls to the ODS and external systems
	OutboundRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// OutboundRequestDuration tracks outbound request duration
	OutboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// SearchLegsTotal tracks each leg of a unified search by outcome
	SearchLegsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "legs_total",
			Help:      "Total number of search legs by leg and outcome",
		},
		[]string{"leg", "outcome"},
	)

	// SearchLegDuration tracks how long each leg took
	SearchLegDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "leg_duration_seconds",
			Help:      "Duration of search legs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"leg"},
	)

	// MergedResultsTotal tracks merged results by source label
	MergedResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "results_total",
			Help:      "Total number of merged results by source",
		},
		[]string{"source"},
	)

	// MatchWarningsTotal tracks ambiguous matches raised by the merger
	MatchWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "warnings_total",
			Help:      "Total number of ambiguous match warnings",
		},
		[]string{"kind"},
	)

	// ConflictsDetected tracks field conflicts by severity
	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "conflicts_total",
			Help:      "Total number of field conflicts detected by severity",
		},
		[]string{"severity"},
	)

	// ImportsTotal tracks import attempts by entity type and status
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "imports_total",
			Help:      "Total number of import attempts",
		},
		[]string{"entity_type", "status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// CapabilityCacheTotal tracks provider capability cache lookups
	CapabilityCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "capability_cache_total",
			Help:      "Provider capability cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records an inbound request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOutboundRequest records an outbound HTTP request
func RecordOutboundRequest(method string, status int, duration time.Duration) {
	OutboundRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	OutboundRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSearchLeg records the outcome of one search leg ("success", "error" or "timeout")
func RecordSearchLeg(leg, outcome string, duration time.Duration) {
	SearchLegsTotal.WithLabelValues(leg, outcome).Inc()
	SearchLegDuration.WithLabelValues(leg).Observe(duration.Seconds())
}

func RecordMergedResult(source string) {
	MergedResultsTotal.WithLabelValues(source).Inc()
}

func RecordMatchWarning(kind string) {
	MatchWarningsTotal.WithLabelValues(kind).Inc()
}

func RecordConflict(severity string) {
	ConflictsDetected.WithLabelValues(severity).Inc()
}

func RecordImport(entityType, status string) {
	ImportsTotal.WithLabelValues(entityType, status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, duration time.Duration) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(duration.Seconds())
}

func RecordCapabilityCache(hit bool) {
	if hit {
		CapabilityCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	CapabilityCacheTotal.WithLabelValues("miss").Inc()
}
