// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import "time"

// Notification types. "trip" is also used for group membership changes.
const (
	NotificationTypeExpense = "expense"
	NotificationTypeTrip    = "trip"
	NotificationTypeMessage = "message"
)

// Notification is a persisted per-recipient record. Only the read flag is
// ever mutated after creation.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
