// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package websocket

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/tripsync/internal/models"
)

// Server to client events
const (
	EventGetOnlineUsers  = "getOnlineUsers"
	EventNewMessage      = "newMessage"
	EventNewGroupMessage = "newGroupMessage"
	EventMessageReaction = "messageReaction"
	EventLocationUpdate  = "locationUpdate"
	EventNotification    = "notification"
)

// Client to server events
const (
	EventJoinGroup     = "joinGroup"
	EventLeaveGroup    = "leaveGroup"
	EventShareLocation = "shareLocation"
)

// Transport keepalive, answered directly on the connection.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inboundFrame defers decoding of Data until the type is known.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ShareLocationRequest is the payload of a shareLocation frame. An empty
// GroupID means the location is broadcast to every connection.
type ShareLocationRequest struct {
	GroupID  string          `json:"groupId,omitempty"`
	Location models.Location `json:"location"`
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
