// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package store is the durable record layer behind every HTTP action:
// messages with their reactions, groups, expenses, trips and notifications.
//
// Two drivers implement Store:
//   - BadgerStore: embedded key/value store, the default for single-node use
//   - PostgresStore: bun over pgdriver for shared deployments
//
// Live events are never written here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/tripsync/internal/metrics"
	"github.com/tomtom215/tripsync/internal/models"
)

// ErrNotFound is returned when a record does not exist, or exists but is not
// visible to the caller (a notification owned by another user).
var ErrNotFound = errors.New("record not found")

// ExpenseFilter selects expenses. A non-empty GroupID lists that group's
// expenses; otherwise the expenses created by CreatedBy are listed.
type ExpenseFilter struct {
	CreatedBy string
	GroupID   string
}

// TripFilter selects trips created by CreatedBy or attached to any of GroupIDs.
type TripFilter struct {
	CreatedBy string
	GroupIDs  []string
}

// Store is the durable store used by the actions, the notification
// materializer and the reaction aggregator.
type Store interface {
	// Messages
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	// ListDirectMessages returns the conversation between two users, oldest first.
	ListDirectMessages(ctx context.Context, userA, userB string) ([]models.Message, error)
	// ListGroupMessages returns a group's messages, oldest first.
	ListGroupMessages(ctx context.Context, groupID string) ([]models.Message, error)
	// UpdateReactions replaces a message's reaction list.
	UpdateReactions(ctx context.Context, messageID string, reactions []models.Reaction, at time.Time) error

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	// AddGroupMember appends userID to the group's members. Adding an existing
	// member leaves the group unchanged.
	AddGroupMember(ctx context.Context, groupID, userID string, at time.Time) (*models.Group, error)
	RenameGroup(ctx context.Context, groupID, name string, at time.Time) (*models.Group, error)
	// RemoveGroupMember drops userID from the group's members. Removing a
	// non-member leaves the group unchanged.
	RemoveGroupMember(ctx context.Context, groupID, userID string, at time.Time) (*models.Group, error)
	// DeleteGroup removes the group record and its membership. Messages,
	// expenses and trips that reference it are kept.
	DeleteGroup(ctx context.Context, groupID string) error

	// Expenses. CreateExpense also adds a group expense's amount to the
	// group's running total in the same transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	UpdateExpenseStatus(ctx context.Context, id, status string) (*models.Expense, error)
	// SetExpenseShares replaces how an expense is split.
	SetExpenseShares(ctx context.Context, id string, shares []models.ExpenseShare) (*models.Expense, error)

	// Trips
	CreateTrip(ctx context.Context, trip *models.Trip) error
	ListTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error)

	// Notifications. CreateNotifications writes the whole batch or nothing.
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	// DeleteReadNotificationsBefore removes read notifications created before cutoff.
	DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// observe records the duration of a store call. A missing record is an
// expected outcome and is not counted as an error.
func observe(driver, operation string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordStoreOperation(driver, operation, time.Since(start), err)
}
