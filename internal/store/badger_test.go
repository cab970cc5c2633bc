// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/tripsync/internal/config"
	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
	"github.com/tomtom215/tripsync/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func newMemoryBadger(t *testing.T) Store {
	t.Helper()
	s, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore(t *testing.T) {
	runStoreSuite(t, newMemoryBadger)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, false)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	n := []models.Notification{{ID: "n1", UserID: "bob", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime}}
	if err := s.CreateNotifications(ctx, n); err != nil {
		t.Fatalf("CreateNotifications() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadger(dir, false)
	if err != nil {
		t.Fatalf("OpenBadger() reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.ListNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "n1" {
		t.Errorf("ListNotifications() after reopen = %+v", got)
	}
}

func TestBadgerStore_Ping(t *testing.T) {
	s, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on open db error = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() on closed db should fail")
	}
}

func TestBadgerStore_PrefixIsolation(t *testing.T) {
	s := newMemoryBadger(t)
	ctx := context.Background()

	// "a" is a key prefix of "a:b"; listings must not mix them.
	batch := []models.Notification{
		{ID: "n1", UserID: "a", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime},
		{ID: "n2", UserID: "a:b", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime},
	}
	if err := s.CreateNotifications(ctx, batch); err != nil {
		t.Fatalf("CreateNotifications() error = %v", err)
	}

	got, err := s.ListNotifications(ctx, "a")
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "n1" {
		t.Errorf("ListNotifications(a) = %+v", got)
	}
}

func TestBadgerStore_RecordsMetrics(t *testing.T) {
	s := newMemoryBadger(t)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.StoreOperationErrors.WithLabelValues(driverBadger, "get_message"))
	if _, err := s.GetMessage(ctx, "missing"); err == nil {
		t.Fatal("expected ErrNotFound")
	}
	after := testutil.ToFloat64(metrics.StoreOperationErrors.WithLabelValues(driverBadger, "get_message"))
	if after != before {
		t.Errorf("missing record counted as store error: %v -> %v", before, after)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: config.StoreDriverBadger, InMemory: true})
	if err != nil {
		t.Fatalf("Open(badger) error = %v", err)
	}
	_ = s.Close()

	if _, err := Open(context.Background(), config.StoreConfig{Driver: "mongo"}); err == nil {
		t.Error("Open(unknown driver) should fail")
	}
}

func TestPairKey(t *testing.T) {
	if pairKey("bob", "alice") != pairKey("alice", "bob") {
		t.Error("pairKey must be symmetric")
	}
}

func TestSortKey(t *testing.T) {
	times := []time.Time{
		time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1950, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Unix(0, 0),
		time.Unix(9, 0),
		time.Unix(10, 0),
		time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		prev := sortKey(times[i-1], "z")
		next := sortKey(times[i], "a")
		if prev >= next {
			t.Errorf("sortKey(%v) = %q, not before sortKey(%v) = %q", times[i-1], prev, times[i], next)
		}
		if len(prev) != len(next) {
			t.Errorf("key widths differ: %q vs %q", prev, next)
		}
	}
}

func TestBadgerStore_ExpensesBeforeEpoch(t *testing.T) {
	ctx := context.Background()
	s := newMemoryBadger(t)

	dates := []time.Time{
		time.Date(1965, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, 7, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		err := s.CreateExpense(ctx, &models.Expense{
			ID:        fmt.Sprintf("e%d", i),
			Title:     "ticket",
			Amount:    10,
			Category:  "Other",
			Date:      d,
			CreatedBy: "u1",
			Type:      models.ExpenseTypePersonal,
			Status:    models.ExpenseStatusPending,
			CreatedAt: d,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListExpenses(ctx, ExpenseFilter{CreatedBy: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"e2", "e1", "e0"}, ids); diff != "" {
		t.Errorf("expense order, newest first (-want +got):\n%s", diff)
	}
}
