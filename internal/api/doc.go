// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package api provides the HTTP and WebSocket surface of Tripsync.

Routes are served by a chi router. Every request passes through request id
tagging, real IP extraction, panic recovery, CORS, Prometheus instrumentation
and response compression. Routes under /api/v1 are additionally rate limited
per client IP and authenticated; see auth.Middleware for the supported modes.

Endpoints:

  - GET  /health, GET /metrics
  - GET  /api/v1/ws (WebSocket upgrade), GET /api/v1/presence
  - /api/v1/messages: direct messages and reactions
  - /api/v1/groups: groups, members and group messages
  - /api/v1/expenses, /api/v1/trips
  - /api/v1/notifications: list, unread count, mark read

Responses use the models.APIResponse envelope. Action errors map to status
codes in respondActionError:

	validation        400 VALIDATION_ERROR
	not a member      403 FORBIDDEN
	not found         404 NOT_FOUND
	already a member  409 CONFLICT
	anything else     500 INTERNAL_ERROR

Handlers never touch connections directly. Writes go through
actions.Service, which persists first and then hands events to the
websocket.Hub for fan-out.
*/
package api
