// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

//go:build integration

// Package testinfra starts the backing services Tripsync talks to (PostgreSQL
// and Redis) in Docker containers for integration tests.
//
// Tests using it are compiled only with the integration build tag:
//
//	go test -tags integration ./...
//
// Typical use:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    s, err := store.ConnectPostgres(ctx, pg.DSN)
//	    ...
//	}
package testinfra
