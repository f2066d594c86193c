package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Room metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages stored",
		},
	)

	RoomOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_room_operation_errors_total",
			Help: "Room operations that failed, by operation and kind",
		},
		[]string{"op", "kind"},
	)

	// Purge metrics
	PurgeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_purge_runs_total",
			Help: "Purge ticks by outcome",
		},
		[]string{"result"}, // "success" or "failure"
	)

	PurgeLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_purge_last_success_timestamp_seconds",
			Help: "Unix time of the last successful purge",
		},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections",
			Help: "Currently connected websocket clients",
		},
	)
)
