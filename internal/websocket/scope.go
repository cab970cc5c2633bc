// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package websocket

import (
	"fmt"
	"strings"
)

// ScopeKind identifies how a Scope resolves to connections.
type ScopeKind int

const (
	// ScopeBroadcast targets every open connection.
	ScopeBroadcast ScopeKind = iota
	// ScopeUser targets the connection registered for one user id.
	ScopeUser
	// ScopeRoom targets every connection joined to a room.
	ScopeRoom
)

// String returns the label used in metrics and the textual scope prefix.
func (k ScopeKind) String() string {
	switch k {
	case ScopeUser:
		return "user"
	case ScopeRoom:
		return "room"
	default:
		return "broadcast"
	}
}

// Scope is the delivery target of a dispatched event.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// UserScope targets the live connection of userID, if any.
func UserScope(userID string) Scope {
	return Scope{Kind: ScopeUser, ID: userID}
}

// RoomScope targets every connection joined to roomID.
func RoomScope(roomID string) Scope {
	return Scope{Kind: ScopeRoom, ID: roomID}
}

// BroadcastScope targets every open connection.
func BroadcastScope() Scope {
	return Scope{Kind: ScopeBroadcast}
}

// String renders the scope as user:<id>, room:<id> or broadcast.
func (s Scope) String() string {
	if s.Kind == ScopeBroadcast {
		return "broadcast"
	}
	return s.Kind.String() + ":" + s.ID
}

// ParseScope parses the textual form produced by Scope.String.
func ParseScope(s string) (Scope, error) {
	if s == "broadcast" {
		return BroadcastScope(), nil
	}

	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Scope{}, fmt.Errorf("invalid scope %q", s)
	}

	switch kind {
	case "user":
		return UserScope(id), nil
	case "room":
		return RoomScope(id), nil
	default:
		return Scope{}, fmt.Errorf("invalid scope kind %q", kind)
	}
}
