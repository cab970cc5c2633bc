// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/tripsync/internal/models"
)

var baseTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// runStoreSuite exercises a Store implementation. Every driver must pass it.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("reactions", func(t *testing.T) { testReactions(t, newStore(t)) })
	t.Run("groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("group lifecycle", func(t *testing.T) { testGroupLifecycle(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("expense updates", func(t *testing.T) { testExpenseUpdates(t, newStore(t)) })
	t.Run("trips", func(t *testing.T) { testTrips(t, newStore(t)) })
	t.Run("notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("retention", func(t *testing.T) { testRetention(t, newStore(t)) })
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func messageID(m models.Message) string           { return m.ID }
func groupID(g models.Group) string               { return g.ID }
func expenseID(e models.Expense) string           { return e.ID }
func tripID(t models.Trip) string                 { return t.ID }
func notificationID(n models.Notification) string { return n.ID }

func testMessages(t *testing.T, s Store) {
	ctx := context.Background()

	msgs := []models.Message{
		{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime, UpdatedAt: baseTime},
		{ID: "m2", SenderID: "bob", ReceiverID: "alice", Text: "hey", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime.Add(time.Minute), UpdatedAt: baseTime},
		{ID: "m3", SenderID: "alice", ReceiverID: "carol", Text: "yo", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime.Add(2 * time.Minute), UpdatedAt: baseTime},
		{ID: "m4", SenderID: "alice", GroupID: "g1", Text: "all", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime.Add(3 * time.Minute), UpdatedAt: baseTime},
		{ID: "m5", SenderID: "bob", GroupID: "g1", Text: "ok", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime.Add(4 * time.Minute), UpdatedAt: baseTime},
	}
	for i := range msgs {
		if err := s.CreateMessage(ctx, &msgs[i]); err != nil {
			t.Fatalf("CreateMessage(%s) error = %v", msgs[i].ID, err)
		}
	}

	got, err := s.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if got.Text != "hi" || got.SenderID != "alice" || !got.CreatedAt.Equal(baseTime) {
		t.Errorf("GetMessage() = %+v", got)
	}

	if _, err := s.GetMessage(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMessage(missing) error = %v, want ErrNotFound", err)
	}

	direct, err := s.ListDirectMessages(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("ListDirectMessages() error = %v", err)
	}
	if diff := cmp.Diff([]string{"m1", "m2"}, ids(direct, messageID)); diff != "" {
		t.Errorf("direct messages (-want +got):\n%s", diff)
	}

	group, err := s.ListGroupMessages(ctx, "g1")
	if err != nil {
		t.Fatalf("ListGroupMessages() error = %v", err)
	}
	if diff := cmp.Diff([]string{"m4", "m5"}, ids(group, messageID)); diff != "" {
		t.Errorf("group messages (-want +got):\n%s", diff)
	}
}

func testReactions(t *testing.T, s Store) {
	ctx := context.Background()

	msg := &models.Message{ID: "m1", SenderID: "alice", GroupID: "g1", Text: "x", Type: models.MessageTypeText, Reactions: []models.Reaction{}, CreatedAt: baseTime, UpdatedAt: baseTime}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	reactions := []models.Reaction{{Emoji: "👍", UserIDs: []string{"bob"}, Count: 1}}
	later := baseTime.Add(time.Hour)
	if err := s.UpdateReactions(ctx, "m1", reactions, later); err != nil {
		t.Fatalf("UpdateReactions() error = %v", err)
	}

	got, err := s.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if diff := cmp.Diff(reactions, got.Reactions); diff != "" {
		t.Errorf("reactions (-want +got):\n%s", diff)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}

	if err := s.UpdateReactions(ctx, "missing", reactions, later); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateReactions(missing) error = %v, want ErrNotFound", err)
	}
}

func testGroups(t *testing.T, s Store) {
	ctx := context.Background()

	groups := []models.Group{
		{ID: "g1", Name: "Lisbon", Members: []string{"alice", "bob"}, LastActivity: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime},
		{ID: "g2", Name: "Kyoto", Members: []string{"alice"}, LastActivity: baseTime.Add(time.Hour), CreatedAt: baseTime, UpdatedAt: baseTime},
	}
	for i := range groups {
		if err := s.CreateGroup(ctx, &groups[i]); err != nil {
			t.Fatalf("CreateGroup(%s) error = %v", groups[i].ID, err)
		}
	}

	mine, err := s.ListGroupsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListGroupsForUser() error = %v", err)
	}
	if diff := cmp.Diff([]string{"g2", "g1"}, ids(mine, groupID)); diff != "" {
		t.Errorf("alice groups (-want +got):\n%s", diff)
	}

	at := baseTime.Add(2 * time.Hour)
	g, err := s.AddGroupMember(ctx, "g2", "carol", at)
	if err != nil {
		t.Fatalf("AddGroupMember() error = %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "carol"}, g.Members); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}

	// Adding twice leaves members unchanged.
	g, err = s.AddGroupMember(ctx, "g2", "carol", at.Add(time.Hour))
	if err != nil {
		t.Fatalf("AddGroupMember() second call error = %v", err)
	}
	if len(g.Members) != 2 {
		t.Errorf("members after duplicate add = %v", g.Members)
	}

	carols, err := s.ListGroupsForUser(ctx, "carol")
	if err != nil {
		t.Fatalf("ListGroupsForUser(carol) error = %v", err)
	}
	if diff := cmp.Diff([]string{"g2"}, ids(carols, groupID)); diff != "" {
		t.Errorf("carol groups (-want +got):\n%s", diff)
	}

	if _, err := s.AddGroupMember(ctx, "missing", "carol", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddGroupMember(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetGroup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGroup(missing) error = %v, want ErrNotFound", err)
	}
}

func testGroupLifecycle(t *testing.T, s Store) {
	ctx := context.Background()

	group := &models.Group{ID: "g1", Name: "Lisbon", Members: []string{"alice", "bob", "carol"}, LastActivity: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime}
	if err := s.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	at := baseTime.Add(time.Hour)
	g, err := s.RenameGroup(ctx, "g1", "Porto", at)
	if err != nil {
		t.Fatalf("RenameGroup() error = %v", err)
	}
	if g.Name != "Porto" || !g.UpdatedAt.Equal(at) {
		t.Errorf("renamed group = %+v", g)
	}

	g, err = s.RemoveGroupMember(ctx, "g1", "bob", at)
	if err != nil {
		t.Fatalf("RemoveGroupMember() error = %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "carol"}, g.Members); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
	bobs, err := s.ListGroupsForUser(ctx, "bob")
	if err != nil || len(bobs) != 0 {
		t.Errorf("bob groups = %v, %v", ids(bobs, groupID), err)
	}

	// Removing a non-member leaves the group unchanged.
	g, err = s.RemoveGroupMember(ctx, "g1", "bob", at.Add(time.Hour))
	if err != nil || len(g.Members) != 2 {
		t.Errorf("second removal = %+v, %v", g, err)
	}

	if err := s.DeleteGroup(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if _, err := s.GetGroup(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGroup(deleted) error = %v, want ErrNotFound", err)
	}
	for _, u := range []string{"alice", "carol"} {
		list, err := s.ListGroupsForUser(ctx, u)
		if err != nil || len(list) != 0 {
			t.Errorf("%s groups after delete = %v, %v", u, ids(list, groupID), err)
		}
	}

	if err := s.DeleteGroup(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteGroup(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.RenameGroup(ctx, "missing", "x", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("RenameGroup(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.RemoveGroupMember(ctx, "missing", "alice", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveGroupMember(missing) error = %v, want ErrNotFound", err)
	}
}

func testExpenseUpdates(t *testing.T, s Store) {
	ctx := context.Background()

	exp := &models.Expense{ID: "e1", Title: "Book", Amount: 9, Category: "Shopping", Date: baseTime, CreatedBy: "alice", Type: models.ExpenseTypePersonal, Status: models.ExpenseStatusPending, CreatedAt: baseTime}
	if err := s.CreateExpense(ctx, exp); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	got, err := s.UpdateExpenseStatus(ctx, "e1", models.ExpenseStatusPaid)
	if err != nil {
		t.Fatalf("UpdateExpenseStatus() error = %v", err)
	}
	if got.Status != models.ExpenseStatusPaid || got.Title != "Book" {
		t.Errorf("updated expense = %+v", got)
	}

	shares := []models.ExpenseShare{{UserID: "alice", Amount: 4.5}, {UserID: "bob", Amount: 4.5}}
	got, err = s.SetExpenseShares(ctx, "e1", shares)
	if err != nil {
		t.Fatalf("SetExpenseShares() error = %v", err)
	}
	if got.Status != models.ExpenseStatusPaid {
		t.Errorf("status lost on split: %+v", got)
	}

	stored, err := s.GetExpense(ctx, "e1")
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if diff := cmp.Diff(shares, stored.SharedWith); diff != "" {
		t.Errorf("shares (-want +got):\n%s", diff)
	}

	if _, err := s.GetExpense(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExpense(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateExpenseStatus(ctx, "missing", models.ExpenseStatusPaid); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateExpenseStatus(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.SetExpenseShares(ctx, "missing", shares); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetExpenseShares(missing) error = %v, want ErrNotFound", err)
	}
}

func testExpenses(t *testing.T, s Store) {
	ctx := context.Background()

	group := &models.Group{ID: "g1", Name: "Lisbon", Members: []string{"alice", "bob"}, LastActivity: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime}
	if err := s.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	created := baseTime.Add(time.Hour)
	expenses := []models.Expense{
		{ID: "e1", Title: "Dinner", Amount: 40, Category: "Food", Date: baseTime, GroupID: "g1", CreatedBy: "alice", Type: models.ExpenseTypeGroup, Status: models.ExpenseStatusPending, CreatedAt: created},
		{ID: "e2", Title: "Taxi", Amount: 12.5, Category: "Transportation", Date: baseTime.Add(24 * time.Hour), GroupID: "g1", CreatedBy: "bob", Type: models.ExpenseTypeGroup, Status: models.ExpenseStatusPending, CreatedAt: created},
		{ID: "e3", Title: "Book", Amount: 9, Category: "Shopping", Date: baseTime.Add(48 * time.Hour), CreatedBy: "alice", Type: models.ExpenseTypePersonal, Status: models.ExpenseStatusPaid, CreatedAt: created},
	}
	for i := range expenses {
		if err := s.CreateExpense(ctx, &expenses[i]); err != nil {
			t.Fatalf("CreateExpense(%s) error = %v", expenses[i].ID, err)
		}
	}

	g, err := s.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if g.TotalExpenses != 52.5 {
		t.Errorf("TotalExpenses = %v, want 52.5", g.TotalExpenses)
	}
	if !g.LastActivity.Equal(created) {
		t.Errorf("LastActivity = %v, want %v", g.LastActivity, created)
	}

	byGroup, err := s.ListExpenses(ctx, ExpenseFilter{GroupID: "g1"})
	if err != nil {
		t.Fatalf("ListExpenses(group) error = %v", err)
	}
	if diff := cmp.Diff([]string{"e2", "e1"}, ids(byGroup, expenseID)); diff != "" {
		t.Errorf("group expenses (-want +got):\n%s", diff)
	}

	byAlice, err := s.ListExpenses(ctx, ExpenseFilter{CreatedBy: "alice"})
	if err != nil {
		t.Fatalf("ListExpenses(user) error = %v", err)
	}
	if diff := cmp.Diff([]string{"e3", "e1"}, ids(byAlice, expenseID)); diff != "" {
		t.Errorf("alice expenses (-want +got):\n%s", diff)
	}

	orphan := &models.Expense{ID: "e4", Title: "Lost", Amount: 1, Category: "Other", Date: baseTime, GroupID: "missing", CreatedBy: "alice", Type: models.ExpenseTypeGroup, Status: models.ExpenseStatusPending, CreatedAt: created}
	if err := s.CreateExpense(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateExpense(missing group) error = %v, want ErrNotFound", err)
	}
	after, err := s.ListExpenses(ctx, ExpenseFilter{CreatedBy: "alice"})
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(after) != 2 {
		t.Errorf("failed group expense must not be stored; got %v", ids(after, expenseID))
	}
}

func testTrips(t *testing.T, s Store) {
	ctx := context.Background()

	trips := []models.Trip{
		{ID: "t1", Title: "Porto", StartDate: baseTime.Add(72 * time.Hour), EndDate: baseTime.Add(96 * time.Hour), Status: models.TripStatusPlanning, GroupID: "g1", CreatedBy: "bob", Coordinates: []float64{-8.61, 41.15}, CreatedAt: baseTime},
		{ID: "t2", Title: "Sintra", StartDate: baseTime.Add(24 * time.Hour), EndDate: baseTime.Add(48 * time.Hour), Status: models.TripStatusPlanning, CreatedBy: "alice", Coordinates: []float64{-9.38, 38.8}, CreatedAt: baseTime},
		{ID: "t3", Title: "Faro", StartDate: baseTime, EndDate: baseTime.Add(24 * time.Hour), Status: models.TripStatusPlanning, GroupID: "g2", CreatedBy: "carol", Coordinates: []float64{-7.93, 37.02}, CreatedAt: baseTime},
	}
	for i := range trips {
		if err := s.CreateTrip(ctx, &trips[i]); err != nil {
			t.Fatalf("CreateTrip(%s) error = %v", trips[i].ID, err)
		}
	}

	got, err := s.ListTrips(ctx, TripFilter{CreatedBy: "alice", GroupIDs: []string{"g1"}})
	if err != nil {
		t.Fatalf("ListTrips() error = %v", err)
	}
	if diff := cmp.Diff([]string{"t2", "t1"}, ids(got, tripID)); diff != "" {
		t.Errorf("trips (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-8.61, 41.15}, got[1].Coordinates); diff != "" {
		t.Errorf("coordinates (-want +got):\n%s", diff)
	}
}

func testNotifications(t *testing.T, s Store) {
	ctx := context.Background()

	batch := []models.Notification{
		{ID: "n1", UserID: "bob", Type: models.NotificationTypeMessage, Title: "New Group Message", Message: "a", CreatedAt: baseTime},
		{ID: "n2", UserID: "bob", Type: models.NotificationTypeExpense, Title: "New Group Expense", Message: "b", CreatedAt: baseTime.Add(time.Minute)},
		{ID: "n3", UserID: "carol", Type: models.NotificationTypeTrip, Title: "Group Created", Message: "c", CreatedAt: baseTime},
	}
	if err := s.CreateNotifications(ctx, batch); err != nil {
		t.Fatalf("CreateNotifications() error = %v", err)
	}
	if err := s.CreateNotifications(ctx, nil); err != nil {
		t.Errorf("CreateNotifications(nil) error = %v", err)
	}

	bobs, err := s.ListNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if diff := cmp.Diff([]string{"n2", "n1"}, ids(bobs, notificationID)); diff != "" {
		t.Errorf("bob notifications (-want +got):\n%s", diff)
	}
	for _, n := range bobs {
		if n.Read {
			t.Errorf("notification %s should start unread", n.ID)
		}
	}

	if c, err := s.CountUnreadNotifications(ctx, "bob"); err != nil || c != 2 {
		t.Errorf("CountUnreadNotifications() = %d, %v; want 2", c, err)
	}

	// Another user's notification is not visible.
	if _, err := s.MarkNotificationRead(ctx, "bob", "n3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkNotificationRead(other user) error = %v, want ErrNotFound", err)
	}

	n, err := s.MarkNotificationRead(ctx, "bob", "n1")
	if err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}
	if !n.Read || n.ID != "n1" {
		t.Errorf("MarkNotificationRead() = %+v", n)
	}
	if c, _ := s.CountUnreadNotifications(ctx, "bob"); c != 1 {
		t.Errorf("unread after mark one = %d, want 1", c)
	}

	changed, err := s.MarkAllNotificationsRead(ctx, "bob")
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead() error = %v", err)
	}
	if changed != 1 {
		t.Errorf("MarkAllNotificationsRead() = %d, want 1", changed)
	}
	if c, _ := s.CountUnreadNotifications(ctx, "bob"); c != 0 {
		t.Errorf("unread after mark all = %d, want 0", c)
	}
	if c, _ := s.CountUnreadNotifications(ctx, "carol"); c != 1 {
		t.Errorf("carol unread = %d, want 1", c)
	}
}

func testRetention(t *testing.T, s Store) {
	ctx := context.Background()

	batch := []models.Notification{
		{ID: "old-read", UserID: "bob", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime},
		{ID: "old-unread", UserID: "bob", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime},
		{ID: "new-read", UserID: "bob", Type: models.NotificationTypeTrip, Title: "t", Message: "m", CreatedAt: baseTime.Add(48 * time.Hour)},
	}
	if err := s.CreateNotifications(ctx, batch); err != nil {
		t.Fatalf("CreateNotifications() error = %v", err)
	}
	for _, id := range []string{"old-read", "new-read"} {
		if _, err := s.MarkNotificationRead(ctx, "bob", id); err != nil {
			t.Fatalf("MarkNotificationRead(%s) error = %v", id, err)
		}
	}

	deleted, err := s.DeleteReadNotificationsBefore(ctx, baseTime.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteReadNotificationsBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	left, err := s.ListNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if diff := cmp.Diff([]string{"new-read", "old-unread"}, ids(left, notificationID)); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
}
