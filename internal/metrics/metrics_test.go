// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/presence", "200"))

	RecordAPIRequest("GET", "/api/v1/presence", "200", 5*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/presence", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordDispatch(t *testing.T) {
	tests := []struct {
		name      string
		scope     string
		event     string
		delivered int
	}{
		{"room with two recipients", "room", "newGroupMessage", 2},
		{"user offline", "user", "notification", 0},
		{"broadcast", "broadcast", "getOnlineUsers", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := testutil.ToFloat64(DispatchTotal.WithLabelValues(tt.scope, tt.event))
			deliveries := testutil.ToFloat64(DispatchDeliveries.WithLabelValues(tt.scope))

			RecordDispatch(tt.scope, tt.event, tt.delivered)

			if got := testutil.ToFloat64(DispatchTotal.WithLabelValues(tt.scope, tt.event)) - calls; got != 1 {
				t.Errorf("dispatch_total delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(DispatchDeliveries.WithLabelValues(tt.scope)) - deliveries; got != float64(tt.delivered) {
				t.Errorf("deliveries delta = %v, want %d", got, tt.delivered)
			}
		})
	}
}

func TestRecordStoreOperation(t *testing.T) {
	errsBefore := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("badger", "create_notifications"))

	RecordStoreOperation("badger", "create_notifications", time.Millisecond, nil)
	RecordStoreOperation("badger", "create_notifications", time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("badger", "create_notifications")) - errsBefore; got != 1 {
		t.Errorf("store errors delta = %v, want 1", got)
	}
}

func TestUpdateConnectionGauges(t *testing.T) {
	UpdateConnectionGauges(3, 2)

	if got := testutil.ToFloat64(WSConnections); got != 3 {
		t.Errorf("connections gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(WSOnlineUsers); got != 2 {
		t.Errorf("online users gauge = %v, want 2", got)
	}
}

// TestMetricGathering checks every registered metric passes the Prometheus linter
func TestMetricGathering(t *testing.T) {
	RecordDispatchDrop(DropReasonOffline)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric %s: %s", p.Metric, p.Text)
	}
}
