// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package models

import "time"

// Expense types
const (
	ExpenseTypePersonal = "personal"
	ExpenseTypeGroup    = "group"
)

// Expense statuses
const (
	ExpenseStatusPending   = "pending"
	ExpenseStatusPaid      = "paid"
	ExpenseStatusCancelled = "cancelled"
)

// ExpenseCategories lists the accepted categories.
var ExpenseCategories = []string{"Food", "Transportation", "Accommodation", "Activities", "Shopping", "Other"}

// Expense is a personal or group expense. GroupID is set only for group expenses.
type Expense struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Amount      float64        `json:"amount"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Date        time.Time      `json:"date"`
	GroupID     string         `json:"groupId,omitempty"`
	TripID      string         `json:"tripId,omitempty"`
	CreatedBy   string         `json:"createdBy"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	// SharedWith is empty until the expense is split.
	SharedWith  []ExpenseShare `json:"sharedWith,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ExpenseShare is one user's part of a split expense.
type ExpenseShare struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}
