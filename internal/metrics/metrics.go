package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whiteboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_rooms_active",
			Help: "Rooms with at least one member",
		},
	)

	SnapshotsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_snapshots_relayed_total",
			Help: "Canvas snapshots fanned out to room members",
		},
	)

	SnapshotsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_snapshots_suppressed_total",
			Help: "Non-propagating snapshots dropped by the echo guard contract",
		},
	)

	ChatMessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_chat_messages_relayed_total",
			Help: "Chat messages fanned out to room members",
		},
	)

	MessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_messages_dropped_total",
			Help: "Malformed or out-of-room wire messages dropped",
		},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_users_registered_total",
			Help: "Total users registered",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_sessions_created_total",
			Help: "Total whiteboard sessions created",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
