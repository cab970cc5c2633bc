// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import "time"

// Message types
const (
	MessageTypeText       = "text"
	MessageTypeImage      = "image"
	MessageTypeExpense    = "expense"
	MessageTypeTripUpdate = "trip_update"
)

// Message is a chat message. Exactly one of ReceiverID (direct) or GroupID
// (group) is set.
type Message struct {
	ID         string                 `json:"id"`
	SenderID   string                 `json:"senderId"`
	ReceiverID string                 `json:"receiverId,omitempty"`
	GroupID    string                 `json:"groupId,omitempty"`
	Text       string                 `json:"text,omitempty"`
	Image      string                 `json:"image,omitempty"`
	Type       string                 `json:"type"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Reactions  []Reaction             `json:"reactions"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// IsGroupMessage reports whether the message belongs to a group room.
func (m *Message) IsGroupMessage() bool {
	return m.GroupID != ""
}

// Reaction aggregates every user that reacted to a message with one emoji.
// Count always equals len(UserIDs).
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"userIds"`
	Count   int      `json:"count"`
}

// ReactionUpdate is the payload of the messageReaction event.
type ReactionUpdate struct {
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
}
