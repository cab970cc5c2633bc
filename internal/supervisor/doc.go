// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package supervisor provides process supervision for Tripsync using suture v4.

# Overview

Long-running components are organized into three layers for failure isolation:

	RootSupervisor ("tripsync")
	├── DataSupervisor ("data-layer")
	│   └── notify.Sweeper (if notify.retention > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── services.HubService
	│   └── presence.RedisMirror (if redis.enabled)
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

A Redis outage that crashes the presence mirror repeatedly puts only the
messaging layer into backoff; the hub keeps its connections and the HTTP
server keeps serving. The mirror itself trips a circuit breaker long before
that point.

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog using the zerolog-backed slog handler from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Service Interface

Every supervised component implements suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service for good, returning an error restarts it,
and a canceled context asks it to return promptly.

# Debugging Shutdown

	report, err := tree.UnstoppedServiceReport()

lists the services that did not return within ShutdownTimeout.
*/
package supervisor
