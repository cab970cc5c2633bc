// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package metrics exposes the Prometheus instruments for Tripsync:
// API latency and throughput, realtime connections, dispatch fan-out,
// notification materialization, reaction toggles, store calls and the
// Redis presence mirror.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch drop reasons
const (
	DropReasonOffline     = "offline"
	DropReasonQueueFull   = "queue_full"
	DropReasonNoRecipient = "no_recipient"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Realtime connection metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripsync_ws_connections",
			Help: "Current number of open realtime connections",
		},
	)

	WSOnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripsync_ws_online_users",
			Help: "Current number of users present in the presence registry",
		},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_ws_messages_received_total",
			Help: "Inbound client frames by type",
		},
		[]string{"type"},
	)

	WSInboundRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_ws_inbound_rejected_total",
			Help: "Inbound client frames rejected before handling",
		},
		[]string{"reason"},
	)

	// Fan-out metrics
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_dispatch_total",
			Help: "Dispatch calls by scope kind and event",
		},
		[]string{"scope", "event"},
	)

	DispatchDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_dispatch_deliveries_total",
			Help: "Events queued to connections by scope kind",
		},
		[]string{"scope"},
	)

	DispatchDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_dispatch_dropped_total",
			Help: "Events not delivered to a recipient by reason",
		},
		[]string{"reason"},
	)

	// Domain metrics
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_notifications_created_total",
			Help: "Notification records persisted by type",
		},
		[]string{"type"},
	)

	NotificationWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsync_notification_write_failures_total",
			Help: "Notification batches that failed to persist",
		},
	)

	ReactionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_reaction_toggles_total",
			Help: "Reaction toggles by resulting action (added, removed)",
		},
		[]string{"action"},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripsync_store_operation_duration_seconds",
			Help:    "Duration of durable store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsync_store_operation_errors_total",
			Help: "Failed durable store operations",
		},
		[]string{"driver", "operation"},
	)

	// Presence mirror metrics
	PresenceMirrorWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsync_presence_mirror_writes_total",
			Help: "Successful presence snapshots written to Redis",
		},
	)

	PresenceMirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsync_presence_mirror_errors_total",
			Help: "Failed or short-circuited presence snapshot writes",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDispatch records one Dispatch call and how many connections it reached.
func RecordDispatch(scope, event string, delivered int) {
	DispatchTotal.WithLabelValues(scope, event).Inc()
	if delivered > 0 {
		DispatchDeliveries.WithLabelValues(scope).Add(float64(delivered))
	}
}

// RecordDispatchDrop records an event that did not reach a recipient.
func RecordDispatchDrop(reason string) {
	DispatchDropped.WithLabelValues(reason).Inc()
}

// UpdateConnectionGauges sets the open connection and online user gauges.
func UpdateConnectionGauges(connections, onlineUsers int) {
	WSConnections.Set(float64(connections))
	WSOnlineUsers.Set(float64(onlineUsers))
}

// RecordStoreOperation records a durable store call.
func RecordStoreOperation(driver, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(driver, operation).Inc()
	}
}
