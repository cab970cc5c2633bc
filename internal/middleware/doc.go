// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package middleware provides the HTTP middleware Tripsync adds on top of chi's.

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern

Both use the standard func(http.Handler) http.Handler shape so they mount
directly with chi's Router.Use. PrometheusMetrics forwards http.Hijacker,
which the WebSocket upgrade needs.
*/
package middleware
