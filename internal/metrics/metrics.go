// Package metrics defines the Prometheus instrumentation shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Mutation Metrics
var (
	// MutationsTotal tracks score mutations by operation and status
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mutations_total",
			Help: "Score mutations by operation (register/delta) and status",
		},
		[]string{"operation", "status"},
	)

	// SnapshotRecomputationsTotal tracks snapshot recomputations by trigger
	SnapshotRecomputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_recomputations_total",
			Help: "Snapshot recomputations by trigger (local/peer)",
		},
		[]string{"trigger"},
	)

	// SnapshotSize tracks the number of entries in computed snapshots
	SnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_size_entries",
			Help: "Number of entries in the most recently computed snapshot",
		},
	)

	// PubSubMessagesReceived tracks peer events received by channel
	PubSubMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_received_total",
			Help: "Pub/sub messages received by channel",
		},
		[]string{"channel"},
	)

	// PubSubPublishErrors tracks failed peer event publishes
	PubSubPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pubsub_publish_errors_total",
			Help: "Failed pub/sub publishes",
		},
	)
)

// Broadcast Hub Metrics
var (
	// HubConnectedObservers tracks the number of connected observers
	HubConnectedObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_observers",
			Help: "Number of currently connected observer connections",
		},
	)

	// HubBroadcastsTotal tracks snapshot broadcasts delivered to the hub
	HubBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Snapshot broadcasts handled by the hub",
		},
	)

	// HubSlowObserversEvicted tracks observers dropped due to a full send buffer
	HubSlowObserversEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_observers_evicted_total",
			Help: "Observers evicted because their send buffer was full",
		},
	)

	// HubCommandChannelDepth tracks current hub command channel depth
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current hub command channel depth",
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Hub panic recoveries",
		},
	)

	// HubStopTimeoutsTotal tracks hub stops that exceeded the shutdown timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub stops that exceeded the shutdown timeout",
		},
	)

	// InboundMessagesTotal tracks inbound observer messages by result
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Inbound observer messages by result (applied/ignored/malformed)",
		},
		[]string{"result"},
	)
)

// WebSocket Connection Metrics
var (
	// WebSocketMessageSendDuration tracks per-message send latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)

	// WebSocketConnectionsRejected tracks rejected connections by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "WebSocket connections rejected by reason (global_limit/ip_limit/rate_limit)",
		},
		[]string{"reason"},
	)
)

// HTTP Metrics
var (
	// HTTPErrorsTotal tracks HTTP errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)
