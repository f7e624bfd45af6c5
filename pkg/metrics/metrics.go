package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DB query duration in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	DBSlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Queries slower than the configured threshold",
		},
		[]string{"operation", "table"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	TaskMoveCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_move_count",
			Help: "Task moves by source and destination column",
		},
		[]string{"from", "to"},
	)

	RegisterEntryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "register_entry_created_count",
			Help: "Risk/issue entries created",
		},
		[]string{"type", "rag"},
	)

	ChangeRequestResolutionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_request_resolution_count",
			Help: "Change request resolutions by outcome",
		},
		[]string{"outcome"},
	)

	HealthEvaluationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_health_evaluation_count",
			Help: "Project health derivations by resulting RAG",
		},
		[]string{"rag"},
	)

	// status: ok, fallback, circuit_open
	TextGenerationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_generation_count",
			Help: "Narrative generation attempts by result",
		},
		[]string{"status"},
	)

	TextGenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text_generation_latency_ms",
			Help:    "Text generation call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// status: queued, parked, failed, sent
	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_count",
			Help: "Notifications by template and delivery status",
		},
		[]string{"template", "status"},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)
)

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func IncrementSlowQuery(operation, table string) {
	DBSlowQueryCount.WithLabelValues(operation, table).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementTaskMove(from, to string) {
	TaskMoveCount.WithLabelValues(from, to).Inc()
}

func IncrementRegisterEntry(entryType, rag string) {
	RegisterEntryCount.WithLabelValues(entryType, rag).Inc()
}

func IncrementChangeRequestResolution(outcome string) {
	ChangeRequestResolutionCount.WithLabelValues(outcome).Inc()
}

func IncrementHealthEvaluation(rag string) {
	HealthEvaluationCount.WithLabelValues(rag).Inc()
}

func RecordTextGeneration(status string, duration time.Duration) {
	TextGenerationCount.WithLabelValues(status).Inc()
	TextGenerationLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncrementNotification(template, status string) {
	NotificationCount.WithLabelValues(template, status).Inc()
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}
