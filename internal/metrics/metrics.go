package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote Engine Metrics
var (
	// VotesTotal tracks applied votes by subject kind and transition shape
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Total applied votes by subject kind and transition",
		},
		[]string{"kind", "transition"},
	)

	// VoteFailuresTotal tracks rejected vote operations by reason
	VoteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vote_failures_total",
			Help: "Total rejected vote operations by reason",
		},
		[]string{"reason"},
	)

	// EngineQueueDepth tracks the pending commands in the vote engine actor queue
	EngineQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vote_engine_queue_depth",
			Help: "Pending commands in the vote engine queue",
		},
	)
)

// Feed Metrics
var (
	// FeedRequestsTotal tracks feed listings by ranking policy
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total feed listing requests by ranking policy",
		},
		[]string{"policy"},
	)

	// FeedCacheHits tracks feed pages served from the Redis cache
	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Feed pages served from cache",
		},
	)

	// FeedCacheMisses tracks feed pages computed from the store
	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Feed pages computed after a cache miss",
		},
	)
)

// WebSocket Metrics
var (
	// WSConnectedClients tracks currently connected feed WebSocket clients
	WSConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connected_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	// WSSlowClientsEvicted tracks clients dropped for not draining their send buffer
	WSSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_slow_clients_evicted_total",
			Help: "WebSocket clients evicted due to a full send buffer",
		},
	)

	// WSConnectionsRejected tracks refused upgrade attempts by limit
	WSConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_connections_rejected_total",
			Help: "WebSocket upgrade attempts rejected by connection limits",
		},
		[]string{"reason"},
	)

	// WSMessagesBroadcast tracks vote results fanned out to clients
	WSMessagesBroadcast = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_messages_broadcast_total",
			Help: "Messages fanned out to WebSocket clients",
		},
	)
)

// Content Metrics
var (
	// NewsletterSignups tracks accepted newsletter signup requests
	NewsletterSignups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_signups_total",
			Help: "Accepted newsletter signup requests",
		},
	)
)

// Session Metrics
var (
	// SessionsCreated tracks logins
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Login sessions created",
		},
	)

	// SessionsDestroyed tracks logouts
	SessionsDestroyed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_destroyed_total",
			Help: "Login sessions destroyed by logout",
		},
	)
)

// Redis Metrics
var (
	// RedisOpsTotal tracks Redis commands by name and outcome
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by command and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis command latency by name
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed dials to Redis
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total failed Redis connection attempts",
		},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks query latency grouped by statement verb
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks failed queries grouped by statement verb
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total failed database queries",
		},
		[]string{"query"},
	)
)
