// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package notify

import (
	"context"
	"fmt"

	"github.com/tomtom215/tripsync/internal/models"
)

// Notification titles
const (
	TitleGroupExpense    = "New Group Expense"
	TitlePersonalExpense = "Expense Added"
	TitleGroupCreated    = "Group Created"
	TitleAddedToGroup    = "Added to Group"
	TitleGroupMessage    = "New Group Message"
	TitleTripCreated     = "New Trip Created"
)

// GroupExpenseCreated notifies every group member except the creator.
func (m *Materializer) GroupExpenseCreated(ctx context.Context, group *models.Group, expense *models.Expense, creatorID string) ([]models.Notification, error) {
	return m.Notify(ctx, group.MembersExcept(creatorID), models.NotificationTypeExpense, TitleGroupExpense,
		fmt.Sprintf(`A new expense "%s" was added to group "%s".`, expense.Title, group.Name))
}

// PersonalExpenseCreated notifies the creator of their own expense.
func (m *Materializer) PersonalExpenseCreated(ctx context.Context, expense *models.Expense, creatorID string) ([]models.Notification, error) {
	return m.Notify(ctx, []string{creatorID}, models.NotificationTypeExpense, TitlePersonalExpense,
		fmt.Sprintf(`You added a new expense "%s".`, expense.Title))
}

// GroupCreated notifies every initial member, creator included.
func (m *Materializer) GroupCreated(ctx context.Context, group *models.Group) ([]models.Notification, error) {
	return m.Notify(ctx, group.Members, models.NotificationTypeTrip, TitleGroupCreated,
		fmt.Sprintf(`You have been added to the group "%s".`, group.Name))
}

// MemberAdded notifies the newly added member.
func (m *Materializer) MemberAdded(ctx context.Context, group *models.Group, memberID string) ([]models.Notification, error) {
	return m.Notify(ctx, []string{memberID}, models.NotificationTypeTrip, TitleAddedToGroup,
		fmt.Sprintf(`You have been added to the group "%s".`, group.Name))
}

// GroupMessagePosted notifies every member except the sender.
func (m *Materializer) GroupMessagePosted(ctx context.Context, group *models.Group, senderID string) ([]models.Notification, error) {
	return m.Notify(ctx, group.MembersExcept(senderID), models.NotificationTypeMessage, TitleGroupMessage,
		fmt.Sprintf(`New message in group "%s".`, group.Name))
}

// TripCreated notifies every group member except the creator.
func (m *Materializer) TripCreated(ctx context.Context, group *models.Group, trip *models.Trip, creatorID string) ([]models.Notification, error) {
	return m.Notify(ctx, group.MembersExcept(creatorID), models.NotificationTypeTrip, TitleTripCreated,
		fmt.Sprintf(`A new trip "%s" was created in group "%s".`, trip.Title, group.Name))
}
