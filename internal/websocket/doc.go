// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package websocket is the realtime core of Tripsync: presence, rooms and
event fan-out over gorilla/websocket connections.

Key Components:

  - Hub: the registry. It owns the open connection set, the presence map
    (user id to most recent connection) and room membership. One Hub is
    constructed per process and passed by reference to the API layer.
  - Client: one connection with a buffered send queue and the two pump
    goroutines (readPump, writePump).
  - Scope: where a dispatched event goes: user:<id>, room:<id> or broadcast.

Architecture:

	HTTP action ──► Hub.Dispatch(event, payload, scope)
	                    │
	          ┌─────────┼──────────┐
	     presence     rooms     all clients
	          └─────────┼──────────┘
	                    ▼
	          Client.send (non-blocking)
	                    ▼
	               writePump ──► browser

Dispatch is the only place outbound events are produced. It never blocks:
a recipient whose queue is full is evicted and the remaining recipients
still receive the event. Events for offline users are dropped; there is no
retry and no acknowledgment.

Presence is last-connect-wins. A disconnect removes the presence entry only
when the disconnecting connection still owns it, so an old tab closing does
not hide a user who reconnected from a new one.

Wire format (both directions):

	{"type": "joinGroup", "data": "g1"}
	{"type": "shareLocation", "data": {"groupId": "g1", "location": {"coordinates": [2.35, 48.85]}}}
	{"type": "newGroupMessage", "data": {...}}

Thread Safety:

All Hub state is guarded by one sync.RWMutex. Dispatch enqueues under the
read lock and send channels are only closed under the write lock, so a send
can never race a close.
*/
package websocket
