// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package services provides suture.Service wrappers for Tripsync components
whose lifecycle does not already match suture's Serve(ctx) error contract.

HTTP Server (HTTPServerService):
  - Binds the listener inside Serve so a bind failure is returned to the
    supervisor instead of being lost in a goroutine
  - Shuts the server down gracefully on context cancellation, bounded by
    a configurable timeout
  - Exposes the bound address, which makes ":0" usable in tests

WebSocket Hub (HubService):
  - Runs websocket.Hub.RunWithContext, which closes every connection when
    the context ends

The notification sweeper (notify.Sweeper) and the Redis presence mirror
(presence.RedisMirror) implement suture.Service directly and need no wrapper.

Usage:

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))
*/
package services
