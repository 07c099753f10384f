package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirper_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// GraphMutations counts follow/unfollow/like/unlike operations by kind and outcome.
	GraphMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_graph_mutations_total",
		Help: "Follow and like set mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	// ContentCreated counts posts and comments written.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_content_created_total",
		Help: "Posts and comments created",
	}, []string{"kind"})

	// NotificationsCreated counts notification rows written.
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirper_notifications_created_total",
		Help: "Notifications persisted",
	})

	// NotificationSideEffectFailures counts best-effort notifications that were dropped.
	NotificationSideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_notification_side_effect_failures_total",
		Help: "Best-effort notifications that failed and were swallowed, by triggering operation",
	}, []string{"operation"})

	// NotificationDrains counts list-and-drain reads.
	NotificationDrains = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirper_notification_drains_total",
		Help: "Notification list reads that cleared the unread flag",
	})

	// RealtimeConnections is the gauge of open notification websocket connections.
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chirper_realtime_connections",
		Help: "Open realtime notification websocket connections",
	})

	// RealtimeDrops counts realtime messages dropped by reason.
	RealtimeDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_realtime_drops_total",
		Help: "Realtime messages dropped due to backpressure or closed clients",
	}, []string{"reason"})

	// AuthAttempts counts register/login/logout attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_auth_attempts_total",
		Help: "Authentication attempts by action and outcome",
	}, []string{"action", "outcome"})

	// RateLimitDecisions counts route limiter outcomes: allowed, limited or store_error.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirper_rate_limit_decisions_total",
		Help: "Route rate limiter decisions by limit name and result",
	}, []string{"limit", "result"})
)

// Outcome labels for GraphMutations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, table, start)
	}
}

// RecordMutation increments GraphMutations for kind with an outcome derived from err.
func RecordMutation(kind string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	GraphMutations.WithLabelValues(kind, outcome).Inc()
}
