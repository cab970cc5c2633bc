// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package models defines the data structures shared by the store, the realtime
core and the HTTP API.

Durable entities:

  - Message: direct or group chat message with its reaction list
  - Group: a named set of members; its id doubles as the realtime room id
  - Expense: personal or group expense
  - Trip: a trip planned inside a group
  - Notification: per-recipient record created by state-changing actions

Transient payloads:

  - LocationUpdate: relayed by shareLocation, never persisted
  - ReactionUpdate: payload of the messageReaction event

API envelopes (APIResponse, APIError, Metadata) live in api_responses.go.
*/
package models
