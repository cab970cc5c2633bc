// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/tomtom215/tripsync/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	// Each subtest gets an empty schema.
	newStore := func(t *testing.T) Store {
		t.Helper()
		s, err := ConnectPostgres(ctx, pg.DSN)
		if err != nil {
			t.Fatalf("ConnectPostgres() error = %v", err)
		}
		for _, table := range []string{"messages", "trip_groups", "expenses", "trips", "notifications"} {
			if _, err := s.bun.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
				t.Fatalf("truncate %s: %v", table, err)
			}
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	runStoreSuite(t, newStore)
}
