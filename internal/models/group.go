// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import (
	"slices"
	"time"
)

// Group is a named set of members. Its ID is also the realtime room id that
// clients join with joinGroup.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Members       []string  `json:"members"`
	TripID        string    `json:"tripId,omitempty"`
	TotalExpenses float64   `json:"totalExpenses"`
	LastActivity  time.Time `json:"lastActivity"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// MembersExcept returns the members other than userID, preserving order.
func (g *Group) MembersExcept(userID string) []string {
	out := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m != userID {
			out = append(out, m)
		}
	}
	return out
}
