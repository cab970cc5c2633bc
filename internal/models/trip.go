// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import "time"

// Trip statuses
const (
	TripStatusPlanning  = "planning"
	TripStatusUpcoming  = "upcoming"
	TripStatusOngoing   = "ongoing"
	TripStatusCompleted = "completed"
)

// Trip is planned inside a group; every trip belongs to exactly one group.
type Trip struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Destination string    `json:"destination"`
	Location    string    `json:"location"`
	Coordinates []float64 `json:"coordinates"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Budget      float64   `json:"budget"`
	Activities  []string  `json:"activities,omitempty"`
	Status      string    `json:"status"`
	GroupID     string    `json:"groupId"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
