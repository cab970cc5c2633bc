// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import "time"

// Location is a point shared by a client, coordinates are [lng, lat].
type Location struct {
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
}

// LocationUpdate is relayed to other clients and never stored.
type LocationUpdate struct {
	UserID    string    `json:"userId"`
	Location  Location  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}
